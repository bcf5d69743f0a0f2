/**
 * @description
 * Field-level decoding helpers shared by every record shape. Each helper reads
 * one key from a JSON object, checks its JSON kind, and reports failures as a
 * SchemaError carrying the dotted path of the offending field.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

type jsonKind string

const (
	kindMissing jsonKind = "missing"
	kindNull    jsonKind = "null"
	kindObject  jsonKind = "object"
	kindArray   jsonKind = "array"
	kindString  jsonKind = "string"
	kindNumber  jsonKind = "number"
	kindBool    jsonKind = "boolean"
	kindInvalid jsonKind = "invalid json"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

func kindOf(raw json.RawMessage) jsonKind {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return kindMissing
	}
	switch trimmed[0] {
	case '{':
		return kindObject
	case '[':
		return kindArray
	case '"':
		return kindString
	case 't', 'f':
		return kindBool
	case 'n':
		return kindNull
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return kindNumber
	default:
		return kindInvalid
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

func rootName(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

// object is a decoded JSON object whose members are still raw.
type object struct {
	path   string
	fields map[string]json.RawMessage
}

func parseObject(path string, raw json.RawMessage) (*object, error) {
	if !json.Valid(raw) {
		return nil, &SchemaError{Field: rootName(path), Expected: string(kindObject), Received: string(kindInvalid)}
	}
	if kind := kindOf(raw); kind != kindObject {
		return nil, &SchemaError{Field: rootName(path), Expected: string(kindObject), Received: string(kind)}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &SchemaError{Field: rootName(path), Expected: string(kindObject), Received: "malformed json"}
	}
	return &object{path: path, fields: fields}, nil
}

func (o *object) fieldPath(name string) string {
	return joinPath(o.path, name)
}

// lookup returns the raw member and its kind. Explicit null counts as absent.
func (o *object) lookup(name string) (json.RawMessage, jsonKind) {
	raw, ok := o.fields[name]
	if !ok {
		return nil, kindMissing
	}
	return raw, kindOf(raw)
}

func (o *object) mismatch(name string, expected string, got jsonKind) error {
	return &SchemaError{Field: o.fieldPath(name), Expected: expected, Received: string(got)}
}

func (o *object) requiredString(name string) (string, error) {
	raw, kind := o.lookup(name)
	if kind != kindString {
		return "", o.mismatch(name, string(kindString), kind)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", o.mismatch(name, string(kindString), "malformed string")
	}
	return s, nil
}

func (o *object) optionalString(name string) (Optional[string], error) {
	_, kind := o.lookup(name)
	if kind == kindMissing || kind == kindNull {
		return None[string](), nil
	}
	s, err := o.requiredString(name)
	if err != nil {
		return None[string](), err
	}
	return Some(s), nil
}

func (o *object) requiredID(name string) (string, error) {
	s, err := o.requiredString(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &SchemaError{Field: o.fieldPath(name), Expected: "non-empty string", Received: "empty string"}
	}
	return s, nil
}

func (o *object) requiredInt(name string) (int64, error) {
	raw, kind := o.lookup(name)
	if kind != kindNumber {
		return 0, o.mismatch(name, "integer", kind)
	}
	n, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return 0, &SchemaError{Field: o.fieldPath(name), Expected: "integer", Received: "number " + string(bytes.TrimSpace(raw))}
	}
	return n, nil
}

func (o *object) optionalInt(name string) (Optional[int64], error) {
	_, kind := o.lookup(name)
	if kind == kindMissing || kind == kindNull {
		return None[int64](), nil
	}
	n, err := o.requiredInt(name)
	if err != nil {
		return None[int64](), err
	}
	return Some(n), nil
}

func (o *object) requiredBool(name string) (bool, error) {
	raw, kind := o.lookup(name)
	if kind != kindBool {
		return false, o.mismatch(name, string(kindBool), kind)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, o.mismatch(name, string(kindBool), "malformed boolean")
	}
	return b, nil
}

func (o *object) optionalBool(name string) (Optional[bool], error) {
	_, kind := o.lookup(name)
	if kind == kindMissing || kind == kindNull {
		return None[bool](), nil
	}
	b, err := o.requiredBool(name)
	if err != nil {
		return None[bool](), err
	}
	return Some(b), nil
}

// optionalFloat decodes a number and checks it lies within [lo, hi].
func (o *object) optionalFloat(name string, lo, hi float64) (Optional[float64], error) {
	raw, kind := o.lookup(name)
	if kind == kindMissing || kind == kindNull {
		return None[float64](), nil
	}
	if kind != kindNumber {
		return None[float64](), o.mismatch(name, string(kindNumber), kind)
	}
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
	if err != nil {
		return None[float64](), o.mismatch(name, string(kindNumber), "malformed number")
	}
	if f < lo || f > hi {
		return None[float64](), &SchemaError{
			Field:    o.fieldPath(name),
			Expected: fmt.Sprintf("number in [%g, %g]", lo, hi),
			Received: strconv.FormatFloat(f, 'g', -1, 64),
		}
	}
	return Some(f), nil
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func (o *object) requiredTimestamp(name string) (string, error) {
	s, err := o.requiredString(name)
	if err != nil {
		return "", err
	}
	if _, err := parseTimestamp(s); err != nil {
		return "", &SchemaError{Field: o.fieldPath(name), Expected: "ISO-8601 timestamp", Received: strconv.Quote(s)}
	}
	return s, nil
}

func (o *object) optionalTimestamp(name string) (Optional[string], error) {
	_, kind := o.lookup(name)
	if kind == kindMissing || kind == kindNull {
		return None[string](), nil
	}
	s, err := o.requiredTimestamp(name)
	if err != nil {
		return None[string](), err
	}
	return Some(s), nil
}

func (o *object) requiredCurrency(name string) (string, error) {
	s, err := o.requiredString(name)
	if err != nil {
		return "", err
	}
	if !currencyPattern.MatchString(s) {
		return "", &SchemaError{Field: o.fieldPath(name), Expected: "3-letter uppercase currency code", Received: strconv.Quote(s)}
	}
	return s, nil
}

func (o *object) optionalCurrency(name string) (Optional[string], error) {
	_, kind := o.lookup(name)
	if kind == kindMissing || kind == kindNull {
		return None[string](), nil
	}
	s, err := o.requiredCurrency(name)
	if err != nil {
		return None[string](), err
	}
	return Some(s), nil
}

// requiredList decodes the array under name, applying decode to each element.
// The server's ordering is preserved.
func requiredList[T any](o *object, name string, decode func(path string, raw json.RawMessage) (T, error)) ([]T, error) {
	raw, kind := o.lookup(name)
	if kind != kindArray {
		return nil, o.mismatch(name, string(kindArray), kind)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, o.mismatch(name, string(kindArray), "malformed array")
	}
	path := o.fieldPath(name)
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := decode(indexPath(path, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// requiredMember decodes the object under name with decode.
func requiredMember[T any](o *object, name string, decode func(path string, raw json.RawMessage) (T, error)) (T, error) {
	raw, kind := o.lookup(name)
	if kind != kindObject {
		var zero T
		return zero, o.mismatch(name, string(kindObject), kind)
	}
	return decode(o.fieldPath(name), raw)
}
