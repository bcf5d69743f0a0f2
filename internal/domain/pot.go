package domain

import "encoding/json"

// Pot is a savings pot. Deleted pots are returned by the API and kept here;
// callers filter on Deleted themselves.
type Pot struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Style            Optional[string] `json:"style,omitzero"`
	Balance          int64            `json:"balance"`
	Currency         string           `json:"currency"`
	Created          string           `json:"created"`
	Updated          string           `json:"updated"`
	Deleted          bool             `json:"deleted"`
	Type             Optional[string] `json:"type,omitzero"`
	GoalAmount       Optional[int64]  `json:"goal_amount,omitzero"`
	Locked           Optional[bool]   `json:"locked,omitzero"`
	CurrentAccountID Optional[string] `json:"current_account_id,omitzero"`
}

func decodePot(path string, raw json.RawMessage) (Pot, error) {
	obj, err := parseObject(path, raw)
	if err != nil {
		return Pot{}, err
	}
	var p Pot
	if p.ID, err = obj.requiredID("id"); err != nil {
		return Pot{}, err
	}
	if p.Name, err = obj.requiredString("name"); err != nil {
		return Pot{}, err
	}
	if p.Style, err = obj.optionalString("style"); err != nil {
		return Pot{}, err
	}
	// Negative balances are not rejected; the server is trusted here.
	if p.Balance, err = obj.requiredInt("balance"); err != nil {
		return Pot{}, err
	}
	if p.Currency, err = obj.requiredCurrency("currency"); err != nil {
		return Pot{}, err
	}
	if p.Created, err = obj.requiredTimestamp("created"); err != nil {
		return Pot{}, err
	}
	if p.Updated, err = obj.requiredTimestamp("updated"); err != nil {
		return Pot{}, err
	}
	if p.Deleted, err = obj.requiredBool("deleted"); err != nil {
		return Pot{}, err
	}
	if p.Type, err = obj.optionalString("type"); err != nil {
		return Pot{}, err
	}
	if p.GoalAmount, err = obj.optionalInt("goal_amount"); err != nil {
		return Pot{}, err
	}
	if p.Locked, err = obj.optionalBool("locked"); err != nil {
		return Pot{}, err
	}
	if p.CurrentAccountID, err = obj.optionalString("current_account_id"); err != nil {
		return Pot{}, err
	}
	return p, nil
}

// DecodePot decodes a single pot object.
func DecodePot(raw json.RawMessage) (Pot, error) {
	return decodePot("", raw)
}

// DecodePotList decodes a {"pots": [...]} response body.
func DecodePotList(raw json.RawMessage) ([]Pot, error) {
	obj, err := parseObject("", raw)
	if err != nil {
		return nil, err
	}
	return requiredList(obj, "pots", decodePot)
}
