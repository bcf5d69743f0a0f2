/**
 * @description
 * Account and balance records returned by the /accounts and /balance endpoints,
 * plus the closed AccountType set used to filter account listings.
 */

package domain

import (
	"encoding/json"
	"time"
)

// AccountType is the closed set of account kinds accepted by the accounts filter.
type AccountType string

const (
	AccountTypeUKRetail      AccountType = "uk_retail"
	AccountTypeUKRetailJoint AccountType = "uk_retail_joint"
)

// AccountTypes lists every accepted AccountType in declaration order.
var AccountTypes = []AccountType{AccountTypeUKRetail, AccountTypeUKRetailJoint}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeUKRetail, AccountTypeUKRetailJoint:
		return true
	}
	return false
}

// ParseAccountType converts s into an AccountType or returns an
// UnknownEnumValueError naming the account_type field.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(s)
	if !t.Valid() {
		return "", &UnknownEnumValueError{Field: "account_type", Value: s}
	}
	return t, nil
}

// Account is a bank account the access token can see.
type Account struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Created     string           `json:"created"`
	Type        Optional[string] `json:"type,omitzero"`
	Closed      Optional[bool]   `json:"closed,omitzero"`
}

// CreatedAt returns Created as a time. Decoded accounts always carry a valid timestamp.
func (a Account) CreatedAt() time.Time {
	t, _ := parseTimestamp(a.Created)
	return t
}

// Balance is a point-in-time balance snapshot. Amounts are in minor units and
// may be negative when the account is overdrawn.
type Balance struct {
	Balance      int64  `json:"balance"`
	TotalBalance int64  `json:"total_balance"`
	Currency     string `json:"currency"`
	SpendToday   int64  `json:"spend_today"`
}

func decodeAccount(path string, raw json.RawMessage) (Account, error) {
	obj, err := parseObject(path, raw)
	if err != nil {
		return Account{}, err
	}
	var a Account
	if a.ID, err = obj.requiredID("id"); err != nil {
		return Account{}, err
	}
	if a.Description, err = obj.requiredString("description"); err != nil {
		return Account{}, err
	}
	if a.Created, err = obj.requiredTimestamp("created"); err != nil {
		return Account{}, err
	}
	if a.Type, err = obj.optionalString("type"); err != nil {
		return Account{}, err
	}
	if a.Closed, err = obj.optionalBool("closed"); err != nil {
		return Account{}, err
	}
	return a, nil
}

// DecodeAccount decodes a single account object.
func DecodeAccount(raw json.RawMessage) (Account, error) {
	return decodeAccount("", raw)
}

// DecodeAccountList decodes an {"accounts": [...]} response body.
func DecodeAccountList(raw json.RawMessage) ([]Account, error) {
	obj, err := parseObject("", raw)
	if err != nil {
		return nil, err
	}
	return requiredList(obj, "accounts", decodeAccount)
}

// DecodeBalance decodes a /balance response body. The body is the balance
// object itself, so a missing "balance" key fails like any required field.
func DecodeBalance(raw json.RawMessage) (Balance, error) {
	obj, err := parseObject("", raw)
	if err != nil {
		return Balance{}, err
	}
	var b Balance
	if b.Balance, err = obj.requiredInt("balance"); err != nil {
		return Balance{}, err
	}
	if b.TotalBalance, err = obj.requiredInt("total_balance"); err != nil {
		return Balance{}, err
	}
	if b.Currency, err = obj.requiredCurrency("currency"); err != nil {
		return Balance{}, err
	}
	if b.SpendToday, err = obj.requiredInt("spend_today"); err != nil {
		return Balance{}, err
	}
	return b, nil
}
