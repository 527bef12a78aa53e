package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"storefront/internal/domain"
)

const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldAddress   = "address"
	FieldCity      = "city"
	FieldEmail     = "email"
)

// Fields lists the form fields in display order.
var Fields = []string{FieldFirstName, FieldLastName, FieldAddress, FieldCity, FieldEmail}

var messages = map[string]string{
	FieldFirstName: "Veuillez entrer un prénom valide",
	FieldLastName:  "Veuillez entrer un nom valide",
	FieldAddress:   "Veuillez entrer une adresse valide",
	FieldCity:      "Veuillez entrer une ville valide",
	FieldEmail:     "Veuillez entrer une adresse email valide",
}

var fieldRules = map[string]string{
	FieldFirstName: "required,letters",
	FieldLastName:  "required,letters",
	FieldAddress:   "required,street",
	FieldCity:      "required,letters",
	FieldEmail:     "mailbox",
}

var ErrUnknownField = errors.New("unknown field")

// Result carries one message per failing field. An empty result means the
// contact passed every rule.
type Result struct {
	Errors map[string]string `json:"errors"`
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Message returns the error message for field, or "" when it passed.
func (r Result) Message(field string) string {
	return r.Errors[field]
}

// Validator checks checkout contact fields.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds the checkout validator. It fails when a custom rule
// cannot be registered.
func NewValidator() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := registerRules(v, map[string]func(string) bool{
		"letters": ValidName,
		"street":  ValidAddress,
		"mailbox": ValidEmail,
	}); err != nil {
		return nil, err
	}
	v.RegisterStructValidationMapRules(map[string]string{
		"FirstName": fieldRules[FieldFirstName],
		"LastName":  fieldRules[FieldLastName],
		"Address":   fieldRules[FieldAddress],
		"City":      fieldRules[FieldCity],
		"Email":     fieldRules[FieldEmail],
	}, domain.ContactInfo{})
	return &Validator{v: v}, nil
}

func registerRules(v *validator.Validate, rules map[string]func(string) bool) error {
	for tag, rule := range rules {
		if err := v.RegisterValidation(tag, stringRule(rule)); err != nil {
			return fmt.Errorf("register %q rule: %w", tag, err)
		}
	}
	return nil
}

// Validate runs every field rule on the contact.
func (val *Validator) Validate(c domain.ContactInfo) Result {
	res := Result{Errors: map[string]string{}}
	err := val.v.Struct(c)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		for _, f := range Fields {
			res.Errors[f] = messages[f]
		}
		return res
	}
	for _, fe := range verrs {
		res.Errors[fe.Field()] = messages[fe.Field()]
	}
	return res
}

// ValidateField checks a single field, for live feedback while the form is
// being filled in. It returns the message to display, "" when valid.
func (val *Validator) ValidateField(field, value string) (string, error) {
	rule, ok := fieldRules[field]
	if !ok {
		return "", ErrUnknownField
	}
	if err := val.v.Var(value, rule); err != nil {
		return messages[field], nil
	}
	return "", nil
}

func stringRule(pred func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pred(fl.Field().String())
	}
}
