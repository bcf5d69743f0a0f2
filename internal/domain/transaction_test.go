package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

const transactionBase = `"id":"tx_00008zIcpb1TB4yeIFXMzx","amount":-510,"created":"2015-08-22T12:20:18Z","currency":"GBP","description":"THE DE BEAUVOIR DELI C LONDON GBR","is_load":false,"settled":"2015-08-23T12:20:18Z","notes":"Salmon sandwich"`

func TestDecodeTransactionWithMerchantReference(t *testing.T) {
	tx, err := DecodeTransaction(json.RawMessage(`{` + transactionBase + `,"merchant":"merch_000"}`))
	if err != nil {
		t.Fatalf("DecodeTransaction returned error: %v", err)
	}

	ref, ok := tx.Merchant.(MerchantReference)
	if !ok {
		t.Fatalf("expected MerchantReference, got %T", tx.Merchant)
	}
	if ref != "merch_000" {
		t.Fatalf("expected merch_000, got %q", ref)
	}
	if _, expanded := tx.ExpandedMerchant(); expanded {
		t.Fatalf("expected no expanded merchant")
	}
}

func TestDecodeTransactionWithExpandedMerchant(t *testing.T) {
	merchant := `{"id":"merch_00008zIcpbAKe8shBxXUtl","group_id":"grp_00008zIcpbBOaAr7TTP3sv","name":"The De Beauvoir Deli Co.","logo":"https://example.com/logo.png","emoji":"🍞","category":"eating_out","created":"2015-08-22T12:20:18Z",
		"address":{"address":"98 Southgate Road","city":"London","country":"GB","latitude":51.54151,"longitude":-0.08482400000002599,"postcode":"N1 3JD","region":"Greater London"}}`

	tx, err := DecodeTransaction(json.RawMessage(`{` + transactionBase + `,"merchant":` + merchant + `}`))
	if err != nil {
		t.Fatalf("DecodeTransaction returned error: %v", err)
	}

	m, ok := tx.ExpandedMerchant()
	if !ok {
		t.Fatalf("expected expanded merchant, got %T", tx.Merchant)
	}
	if m.ID != "merch_00008zIcpbAKe8shBxXUtl" || m.Name != "The De Beauvoir Deli Co." {
		t.Fatalf("unexpected merchant: %+v", m)
	}
	if tx.Merchant.MerchantID() != m.ID {
		t.Fatalf("expected MerchantID to match expanded id")
	}
	addr, ok := m.Address.Get()
	if !ok {
		t.Fatalf("expected merchant address")
	}
	if city := addr.City.OrElse(""); city != "London" {
		t.Fatalf("expected city London, got %q", city)
	}
	if lat := addr.Latitude.OrElse(0); lat != 51.54151 {
		t.Fatalf("expected latitude 51.54151, got %v", lat)
	}
	if category := m.Category.OrElse(""); category != "eating_out" {
		t.Fatalf("expected category eating_out, got %q", category)
	}
}

func TestDecodeTransactionMerchantKinds(t *testing.T) {
	tests := []struct {
		name     string
		merchant string
		wantNil  bool
		wantErr  bool
	}{
		{name: "absent", merchant: "", wantNil: true},
		{name: "null", merchant: `,"merchant":null`, wantNil: true},
		{name: "number", merchant: `,"merchant":42`, wantErr: true},
		{name: "array", merchant: `,"merchant":["merch_1"]`, wantErr: true},
		{name: "boolean", merchant: `,"merchant":true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := DecodeTransaction(json.RawMessage(`{` + transactionBase + tt.merchant + `}`))
			if tt.wantErr {
				var schemaErr *SchemaError
				if !errors.As(err, &schemaErr) {
					t.Fatalf("expected SchemaError, got %v", err)
				}
				if schemaErr.Field != "merchant" || schemaErr.Expected != "object or string" {
					t.Fatalf("unexpected schema error: %+v", schemaErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeTransaction returned error: %v", err)
			}
			if tt.wantNil && tx.Merchant != nil {
				t.Fatalf("expected nil merchant, got %#v", tx.Merchant)
			}
		})
	}
}

func TestDecodeTransactionRejectsOutOfRangeCoordinates(t *testing.T) {
	body := `{` + transactionBase + `,"merchant":{"id":"merch_1","name":"Shop","address":{"latitude":95.2,"longitude":0}}}`

	_, err := DecodeTransaction(json.RawMessage(body))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Field != "merchant.address.latitude" {
		t.Fatalf("expected nested field path, got %q", schemaErr.Field)
	}
	if schemaErr.Received != "95.2" {
		t.Fatalf("expected received 95.2, got %q", schemaErr.Received)
	}
}

func TestDecodeTransactionMerchantRequiresName(t *testing.T) {
	body := `{` + transactionBase + `,"merchant":{"id":"merch_1","name":""}}`

	_, err := DecodeTransaction(json.RawMessage(body))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Field != "merchant.name" {
		t.Fatalf("expected merchant.name, got %q", schemaErr.Field)
	}
}

func TestDecodeTransactionMetadata(t *testing.T) {
	body := `{` + transactionBase + `,"metadata":{"foo":"bar","count":3,"flag":true,"none":null}}`

	tx, err := DecodeTransaction(json.RawMessage(body))
	if err != nil {
		t.Fatalf("DecodeTransaction returned error: %v", err)
	}
	md, ok := tx.Metadata.Get()
	if !ok {
		t.Fatalf("expected metadata to be present")
	}
	if md["foo"] != "bar" || md["flag"] != true || md["none"] != nil {
		t.Fatalf("unexpected metadata: %#v", md)
	}
	if n, ok := md["count"].(json.Number); !ok || n.String() != "3" {
		t.Fatalf("expected json.Number 3, got %#v", md["count"])
	}

	_, err = DecodeTransaction(json.RawMessage(`{` + transactionBase + `,"metadata":{"nested":{"a":1}}}`))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError for nested metadata, got %v", err)
	}
	if schemaErr.Field != "metadata.nested" || schemaErr.Expected != "scalar" {
		t.Fatalf("unexpected schema error: %+v", schemaErr)
	}
}

func TestDecodeTransactionSettlement(t *testing.T) {
	unsettled := `"id":"tx_1","amount":100,"created":"2015-08-22T12:20:18Z","currency":"GBP","description":"x","is_load":true`

	for _, settled := range []string{``, `,"settled":""`, `,"settled":null`} {
		tx, err := DecodeTransaction(json.RawMessage(`{` + unsettled + settled + `}`))
		if err != nil {
			t.Fatalf("DecodeTransaction(%q) returned error: %v", settled, err)
		}
		if tx.IsSettled() {
			t.Fatalf("expected unsettled transaction for %q", settled)
		}
	}

	_, err := DecodeTransaction(json.RawMessage(`{` + unsettled + `,"settled":"soon"}`))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) || schemaErr.Field != "settled" {
		t.Fatalf("expected settled SchemaError, got %v", err)
	}
}

func TestDecodeTransactionMarshalKeepsMerchantShape(t *testing.T) {
	tx, err := DecodeTransaction(json.RawMessage(`{` + transactionBase + `,"merchant":"merch_000"}`))
	if err != nil {
		t.Fatalf("DecodeTransaction returned error: %v", err)
	}
	encoded, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(encoded, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back["merchant"] != "merch_000" {
		t.Fatalf("expected merchant reference to serialise as a string, got %#v", back["merchant"])
	}
	if back["created"] != "2015-08-22T12:20:18Z" {
		t.Fatalf("expected created to be preserved, got %#v", back["created"])
	}
}

func TestDecodeTwiceYieldsIndependentEqualValues(t *testing.T) {
	raw := json.RawMessage(`{` + transactionBase + `,"merchant":"merch_000"}`)
	first, err := DecodeTransaction(raw)
	if err != nil {
		t.Fatalf("first decode failed: %v", err)
	}
	second, err := DecodeTransaction(raw)
	if err != nil {
		t.Fatalf("second decode failed: %v", err)
	}
	if first.ID != second.ID || first.Amount != second.Amount || first.Merchant != second.Merchant {
		t.Fatalf("expected value-equal decodes, got %+v and %+v", first, second)
	}
}

func TestDecodeTransactionListAndEnvelope(t *testing.T) {
	list, err := DecodeTransactionList(json.RawMessage(`{"transactions":[{` + transactionBase + `}]}`))
	if err != nil {
		t.Fatalf("DecodeTransactionList returned error: %v", err)
	}
	if len(list) != 1 || list[0].Amount != -510 {
		t.Fatalf("unexpected transactions: %+v", list)
	}

	_, err = DecodeTransactionResponse(json.RawMessage(`{"transactions":[]}`))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) || schemaErr.Field != "transaction" || schemaErr.Received != "missing" {
		t.Fatalf("expected missing transaction SchemaError, got %v", err)
	}
}
