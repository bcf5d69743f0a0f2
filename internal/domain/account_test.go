package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeAccountRoundTripPreservesKnownFields(t *testing.T) {
	raw := json.RawMessage(`{"id":"acc_00009","description":"Peter Pan's Account","created":"2015-11-13T12:17:42.102Z","owners":[{"user_id":"user_1"}]}`)

	account, err := DecodeAccount(raw)
	if err != nil {
		t.Fatalf("DecodeAccount returned error: %v", err)
	}

	encoded, err := json.Marshal(account)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(encoded, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	want := map[string]string{
		"id":          "acc_00009",
		"description": "Peter Pan's Account",
		"created":     "2015-11-13T12:17:42.102Z",
	}
	for key, value := range want {
		if back[key] != value {
			t.Fatalf("expected %s=%q after round trip, got %v", key, value, back[key])
		}
	}
	if _, ok := back["type"]; ok {
		t.Fatalf("expected absent optional field to be omitted, got %v", back["type"])
	}
}

func TestDecodeAccountRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		field    string
		received string
	}{
		{name: "missing id", body: `{"description":"x","created":"2015-11-13T12:17:42Z"}`, field: "id", received: "missing"},
		{name: "empty id", body: `{"id":"","description":"x","created":"2015-11-13T12:17:42Z"}`, field: "id", received: "empty string"},
		{name: "numeric description", body: `{"id":"acc_1","description":7,"created":"2015-11-13T12:17:42Z"}`, field: "description", received: "number"},
		{name: "bad created", body: `{"id":"acc_1","description":"x","created":"yesterday"}`, field: "created", received: `"yesterday"`},
		{name: "null created", body: `{"id":"acc_1","description":"x","created":null}`, field: "created", received: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAccount(json.RawMessage(tt.body))
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if schemaErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, schemaErr.Field)
			}
			if schemaErr.Received != tt.received {
				t.Fatalf("expected received %q, got %q", tt.received, schemaErr.Received)
			}
		})
	}
}

func TestDecodeAccountListReportsIndexedPath(t *testing.T) {
	body := `{"accounts":[{"id":"acc_1","description":"a","created":"2015-11-13T12:17:42Z"},{"id":"acc_2","description":"b"}]}`

	_, err := DecodeAccountList(json.RawMessage(body))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Field != "accounts[1].created" {
		t.Fatalf("expected indexed field path, got %q", schemaErr.Field)
	}
}

func TestDecodeAccountListPreservesServerOrder(t *testing.T) {
	body := `{"accounts":[
		{"id":"acc_b","description":"b","created":"2020-01-02T00:00:00Z"},
		{"id":"acc_a","description":"a","created":"2019-01-01T00:00:00Z"}
	]}`

	accounts, err := DecodeAccountList(json.RawMessage(body))
	if err != nil {
		t.Fatalf("DecodeAccountList returned error: %v", err)
	}
	if len(accounts) != 2 || accounts[0].ID != "acc_b" || accounts[1].ID != "acc_a" {
		t.Fatalf("expected server order to be preserved, got %+v", accounts)
	}
}

func TestParseAccountType(t *testing.T) {
	for _, valid := range []string{"uk_retail", "uk_retail_joint"} {
		got, err := ParseAccountType(valid)
		if err != nil {
			t.Fatalf("ParseAccountType(%q) returned error: %v", valid, err)
		}
		if string(got) != valid {
			t.Fatalf("expected %q, got %q", valid, got)
		}
	}

	for _, invalid := range []string{"", "uk_business", "UK_RETAIL"} {
		_, err := ParseAccountType(invalid)
		var enumErr *UnknownEnumValueError
		if !errors.As(err, &enumErr) {
			t.Fatalf("ParseAccountType(%q): expected UnknownEnumValueError, got %v", invalid, err)
		}
		if enumErr.Field != "account_type" || enumErr.Value != invalid {
			t.Fatalf("unexpected error contents: %+v", enumErr)
		}
	}
}

func TestDecodeBalance(t *testing.T) {
	balance, err := DecodeBalance(json.RawMessage(`{"balance":-5000,"total_balance":6000,"currency":"GBP","spend_today":-120,"local_currency":""}`))
	if err != nil {
		t.Fatalf("DecodeBalance returned error: %v", err)
	}
	if balance.Balance != -5000 || balance.TotalBalance != 6000 || balance.Currency != "GBP" || balance.SpendToday != -120 {
		t.Fatalf("unexpected balance: %+v", balance)
	}
}

func TestDecodeBalanceFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing balance", body: `{"total_balance":6000,"currency":"GBP","spend_today":0}`, field: "balance"},
		{name: "fractional balance", body: `{"balance":1.5,"total_balance":6000,"currency":"GBP","spend_today":0}`, field: "balance"},
		{name: "lowercase currency", body: `{"balance":1,"total_balance":6000,"currency":"gbp","spend_today":0}`, field: "currency"},
		{name: "long currency", body: `{"balance":1,"total_balance":6000,"currency":"GBPX","spend_today":0}`, field: "currency"},
		{name: "string spend", body: `{"balance":1,"total_balance":6000,"currency":"GBP","spend_today":"0"}`, field: "spend_today"},
		{name: "not an object", body: `[1,2]`, field: "$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBalance(json.RawMessage(tt.body))
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if schemaErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, schemaErr.Field)
			}
		})
	}
}

func TestDecodeRejectsNonJSONBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "html page", body: `<html>maintenance</html>`},
		{name: "truncated object", body: `{"balance":1,"total_bal`},
		{name: "bare word", body: `maintenance`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBalance(json.RawMessage(tt.body))
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if schemaErr.Field != "$" || schemaErr.Received != "invalid json" {
				t.Fatalf("expected invalid json at $, got %+v", schemaErr)
			}
		})
	}
}
