package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON argument names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type getBalanceArgs struct {
	AccountID string `json:"account_id" validate:"required"`
}

type listAccountsArgs struct {
	AccountType string `json:"account_type"`
}

type listPotsArgs struct {
	CurrentAccountID string `json:"current_account_id"`
}

type getTransactionArgs struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

type listTransactionsArgs struct {
	AccountID string `json:"account_id" validate:"required"`
	Since     string `json:"since"`
	Before    string `json:"before"`
	Limit     int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// decodeArgs strictly decodes raw into dst and validates it. An empty body or
// JSON null is treated as an empty argument object.
func decodeArgs(tool string, raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &ArgumentError{Tool: tool, Message: err.Error()}
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ArgumentError{Tool: tool, Field: fe.Field(), Message: argumentMessage(fe)}
		}
		return &ArgumentError{Tool: tool, Message: err.Error()}
	}
	return nil
}

func argumentMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "value must be at least " + fe.Param()
	case "max":
		return "value must be at most " + fe.Param()
	default:
		return "invalid value"
	}
}
