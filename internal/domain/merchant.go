package domain

import "encoding/json"

// Address is a merchant location. Every field is optional; coordinates are
// range-checked only when present.
type Address struct {
	Address   Optional[string]  `json:"address,omitzero"`
	City      Optional[string]  `json:"city,omitzero"`
	Country   Optional[string]  `json:"country,omitzero"`
	Postcode  Optional[string]  `json:"postcode,omitzero"`
	Region    Optional[string]  `json:"region,omitzero"`
	Latitude  Optional[float64] `json:"latitude,omitzero"`
	Longitude Optional[float64] `json:"longitude,omitzero"`
}

// Merchant is the expanded merchant record attached to a transaction.
type Merchant struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	GroupID  Optional[string]  `json:"group_id,omitzero"`
	Created  Optional[string]  `json:"created,omitzero"`
	Logo     Optional[string]  `json:"logo,omitzero"`
	Emoji    Optional[string]  `json:"emoji,omitzero"`
	Category Optional[string]  `json:"category,omitzero"`
	Address  Optional[Address] `json:"address,omitzero"`
}

// MerchantInfo is the transaction merchant field: either an ExpandedMerchant
// or a bare MerchantReference. The set of implementations is closed.
type MerchantInfo interface {
	MerchantID() string
	isMerchantInfo()
}

// ExpandedMerchant is a merchant inlined by the API.
type ExpandedMerchant struct {
	Merchant
}

func (m ExpandedMerchant) MerchantID() string { return m.ID }
func (ExpandedMerchant) isMerchantInfo()      {}

// MerchantReference is an opaque merchant id returned when the merchant was not expanded.
type MerchantReference string

func (r MerchantReference) MerchantID() string { return string(r) }
func (MerchantReference) isMerchantInfo()      {}

func decodeAddress(path string, raw json.RawMessage) (Address, error) {
	obj, err := parseObject(path, raw)
	if err != nil {
		return Address{}, err
	}
	var a Address
	if a.Address, err = obj.optionalString("address"); err != nil {
		return Address{}, err
	}
	if a.City, err = obj.optionalString("city"); err != nil {
		return Address{}, err
	}
	if a.Country, err = obj.optionalString("country"); err != nil {
		return Address{}, err
	}
	if a.Postcode, err = obj.optionalString("postcode"); err != nil {
		return Address{}, err
	}
	if a.Region, err = obj.optionalString("region"); err != nil {
		return Address{}, err
	}
	if a.Latitude, err = obj.optionalFloat("latitude", -90, 90); err != nil {
		return Address{}, err
	}
	if a.Longitude, err = obj.optionalFloat("longitude", -180, 180); err != nil {
		return Address{}, err
	}
	return a, nil
}

// DecodeAddress decodes a single address object.
func DecodeAddress(raw json.RawMessage) (Address, error) {
	return decodeAddress("", raw)
}

func decodeMerchant(path string, raw json.RawMessage) (Merchant, error) {
	obj, err := parseObject(path, raw)
	if err != nil {
		return Merchant{}, err
	}
	var m Merchant
	if m.ID, err = obj.requiredID("id"); err != nil {
		return Merchant{}, err
	}
	if m.Name, err = obj.requiredID("name"); err != nil {
		return Merchant{}, err
	}
	if m.GroupID, err = obj.optionalString("group_id"); err != nil {
		return Merchant{}, err
	}
	if m.Created, err = obj.optionalTimestamp("created"); err != nil {
		return Merchant{}, err
	}
	if m.Logo, err = obj.optionalString("logo"); err != nil {
		return Merchant{}, err
	}
	if m.Emoji, err = obj.optionalString("emoji"); err != nil {
		return Merchant{}, err
	}
	if m.Category, err = obj.optionalString("category"); err != nil {
		return Merchant{}, err
	}
	if _, kind := obj.lookup("address"); kind != kindMissing && kind != kindNull {
		addr, err := requiredMember(obj, "address", decodeAddress)
		if err != nil {
			return Merchant{}, err
		}
		m.Address = Some(addr)
	}
	return m, nil
}

// DecodeMerchant decodes a single merchant object.
func DecodeMerchant(raw json.RawMessage) (Merchant, error) {
	return decodeMerchant("", raw)
}

// decodeMerchantInfo dispatches on the JSON kind of the merchant field.
// Absent or null yields a nil MerchantInfo.
func decodeMerchantInfo(obj *object, name string) (MerchantInfo, error) {
	raw, kind := obj.lookup(name)
	switch kind {
	case kindMissing, kindNull:
		return nil, nil
	case kindObject:
		m, err := decodeMerchant(obj.fieldPath(name), raw)
		if err != nil {
			return nil, err
		}
		return ExpandedMerchant{Merchant: m}, nil
	case kindString:
		ref, err := obj.requiredString(name)
		if err != nil {
			return nil, err
		}
		return MerchantReference(ref), nil
	default:
		return nil, obj.mismatch(name, "object or string", kind)
	}
}
