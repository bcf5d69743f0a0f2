package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Metadata is the open key/value map attached to a transaction. Values are
// JSON scalars: string, json.Number, bool or nil.
type Metadata map[string]any

// Transaction is a single account transaction. Amounts are signed minor units.
type Transaction struct {
	ID            string             `json:"id"`
	Amount        int64              `json:"amount"`
	Created       string             `json:"created"`
	Currency      string             `json:"currency"`
	Description   string             `json:"description"`
	Merchant      MerchantInfo       `json:"merchant"`
	Metadata      Optional[Metadata] `json:"metadata,omitzero"`
	Notes         Optional[string]   `json:"notes,omitzero"`
	IsLoad        bool               `json:"is_load"`
	Settled       string             `json:"settled"`
	AccountID     Optional[string]   `json:"account_id,omitzero"`
	Category      Optional[string]   `json:"category,omitzero"`
	DeclineReason Optional[string]   `json:"decline_reason,omitzero"`
	LocalAmount   Optional[int64]    `json:"local_amount,omitzero"`
	LocalCurrency Optional[string]   `json:"local_currency,omitzero"`
}

// IsSettled reports whether the transaction has a settlement timestamp.
func (t Transaction) IsSettled() bool {
	return t.Settled != ""
}

// CreatedAt returns Created as a time.
func (t Transaction) CreatedAt() time.Time {
	ts, _ := parseTimestamp(t.Created)
	return ts
}

// ExpandedMerchant returns the inlined merchant, if the API expanded it.
func (t Transaction) ExpandedMerchant() (Merchant, bool) {
	m, ok := t.Merchant.(ExpandedMerchant)
	if !ok {
		return Merchant{}, false
	}
	return m.Merchant, true
}

func decodeMetadata(obj *object, name string) (Optional[Metadata], error) {
	raw, kind := obj.lookup(name)
	if kind == kindMissing || kind == kindNull {
		return None[Metadata](), nil
	}
	if kind != kindObject {
		return None[Metadata](), obj.mismatch(name, string(kindObject), kind)
	}
	inner, err := parseObject(obj.fieldPath(name), raw)
	if err != nil {
		return None[Metadata](), err
	}
	md := make(Metadata, len(inner.fields))
	for key, value := range inner.fields {
		switch kindOf(value) {
		case kindString, kindNumber, kindBool, kindNull:
		default:
			return None[Metadata](), inner.mismatch(key, "scalar", kindOf(value))
		}
		dec := json.NewDecoder(bytes.NewReader(value))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return None[Metadata](), inner.mismatch(key, "scalar", "malformed json")
		}
		md[key] = v
	}
	return Some(md), nil
}

func decodeTransaction(path string, raw json.RawMessage) (Transaction, error) {
	obj, err := parseObject(path, raw)
	if err != nil {
		return Transaction{}, err
	}
	var t Transaction
	if t.ID, err = obj.requiredID("id"); err != nil {
		return Transaction{}, err
	}
	if t.Amount, err = obj.requiredInt("amount"); err != nil {
		return Transaction{}, err
	}
	if t.Created, err = obj.requiredTimestamp("created"); err != nil {
		return Transaction{}, err
	}
	if t.Currency, err = obj.requiredCurrency("currency"); err != nil {
		return Transaction{}, err
	}
	if t.Description, err = obj.requiredString("description"); err != nil {
		return Transaction{}, err
	}
	if t.Merchant, err = decodeMerchantInfo(obj, "merchant"); err != nil {
		return Transaction{}, err
	}
	if t.Metadata, err = decodeMetadata(obj, "metadata"); err != nil {
		return Transaction{}, err
	}
	if t.Notes, err = obj.optionalString("notes"); err != nil {
		return Transaction{}, err
	}
	if t.IsLoad, err = obj.requiredBool("is_load"); err != nil {
		return Transaction{}, err
	}
	// Unsettled transactions carry an empty or absent settled field.
	settled, err := obj.optionalString("settled")
	if err != nil {
		return Transaction{}, err
	}
	if s, ok := settled.Get(); ok && s != "" {
		if t.Settled, err = obj.requiredTimestamp("settled"); err != nil {
			return Transaction{}, err
		}
	}
	if t.AccountID, err = obj.optionalString("account_id"); err != nil {
		return Transaction{}, err
	}
	if t.Category, err = obj.optionalString("category"); err != nil {
		return Transaction{}, err
	}
	if t.DeclineReason, err = obj.optionalString("decline_reason"); err != nil {
		return Transaction{}, err
	}
	if t.LocalAmount, err = obj.optionalInt("local_amount"); err != nil {
		return Transaction{}, err
	}
	if t.LocalCurrency, err = obj.optionalCurrency("local_currency"); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// DecodeTransaction decodes a single transaction object.
func DecodeTransaction(raw json.RawMessage) (Transaction, error) {
	return decodeTransaction("", raw)
}

// DecodeTransactionResponse decodes a {"transaction": {...}} response body.
func DecodeTransactionResponse(raw json.RawMessage) (Transaction, error) {
	obj, err := parseObject("", raw)
	if err != nil {
		return Transaction{}, err
	}
	return requiredMember(obj, "transaction", decodeTransaction)
}

// DecodeTransactionList decodes a {"transactions": [...]} response body.
func DecodeTransactionList(raw json.RawMessage) ([]Transaction, error) {
	obj, err := parseObject("", raw)
	if err != nil {
		return nil, err
	}
	return requiredList(obj, "transactions", decodeTransaction)
}
