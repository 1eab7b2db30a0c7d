// Package validate is the form-validation layer. Input is checked against the
// embedded CUE schema before it reaches any container; containers assume
// validated input.
//
// Failures come back as Errors, one FieldError per offending field, each
// carrying an i18n message key and its parameters.
package validate

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/techshop/internal/domain"
)

//go:embed schema.cue
var schemaCUE []byte

// FieldError is one rejected form field.
type FieldError struct {
	Field  string         `json:"field"`
	Key    string         `json:"key"`
	Params map[string]any `json:"params,omitempty"`
	Detail string         `json:"detail,omitempty"`
}

// Errors is the set of rejected fields of one form, in form order.
type Errors []FieldError

func (e Errors) Error() string {
	fields := make([]string, len(e))
	for i, fe := range e {
		fields[i] = fe.Field
	}
	return "invalid " + strings.Join(fields, ", ")
}

// Field returns the error for name.
func (e Errors) Field(name string) (FieldError, bool) {
	i := slices.IndexFunc(e, func(fe FieldError) bool { return fe.Field == name })
	if i < 0 {
		return FieldError{}, false
	}
	return e[i], true
}

// Registration is the sign-up form.
type Registration struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
}

// form describes one schema definition.
type form struct {
	def    string
	fields []string
}

var (
	emailForm        = form{"#Email", []string{"email"}}
	shippingForm     = form{"#ShippingAddress", []string{"fullName", "email", "phoneNumber", "addressLine1", "addressLine2", "city", "postalCode", "country"}}
	paymentForm      = form{"#PaymentMethod", []string{"id"}}
	loginForm        = form{"#Login", []string{"email", "password"}}
	registrationForm = form{"#Registration", []string{"email", "password", "confirmPassword", "displayName"}}
	reviewForm       = form{"#Review", []string{"rating", "comment"}}
)

// Validator checks forms against a compiled schema. Safe for concurrent use.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the validator for the embedded schema.
// Panics if the embedded schema does not compile.
func Default() *Validator {
	defaultOnce.Do(func() {
		v, err := New(schemaCUE)
		if err != nil {
			panic(fmt.Sprintf("validate: embedded schema: %v", err))
		}
		defaultValidator = v
	})
	return defaultValidator
}

// New compiles a schema document.
func New(schema []byte) (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(schema)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: v}, nil
}

// Email validates a single email address.
func (v *Validator) Email(email string) error {
	return v.check(emailForm, map[string]any{"email": email})
}

// ShippingAddress validates the shipping form.
func (v *Validator) ShippingAddress(a domain.Address) error {
	in := map[string]any{
		"fullName":     a.FullName,
		"email":        a.Email,
		"phoneNumber":  a.PhoneNumber,
		"addressLine1": a.AddressLine1,
		"city":         a.City,
		"postalCode":   a.PostalCode,
		"country":      a.Country,
	}
	if a.AddressLine2 != "" {
		in["addressLine2"] = a.AddressLine2
	}
	return v.check(shippingForm, in)
}

// PaymentMethod validates a payment method id.
func (v *Validator) PaymentMethod(id string) error {
	return v.check(paymentForm, map[string]any{"id": id})
}

// Login validates the sign-in form.
func (v *Validator) Login(email, password string) error {
	return v.check(loginForm, map[string]any{"email": email, "password": password})
}

// Registration validates the sign-up form.
func (v *Validator) Registration(r Registration) error {
	in := map[string]any{
		"email":           r.Email,
		"password":        r.Password,
		"confirmPassword": r.ConfirmPassword,
	}
	if r.DisplayName != "" {
		in["displayName"] = r.DisplayName
	}
	err := v.check(registrationForm, in)
	if errs, ok := err.(Errors); ok && r.Password == r.ConfirmPassword {
		// A bad password also poisons the confirmPassword reference.
		errs = slices.DeleteFunc(errs, func(fe FieldError) bool { return fe.Field == "confirmPassword" })
		if len(errs) == 0 {
			return nil
		}
		return errs
	}
	return err
}

// Review validates the review form.
func (v *Validator) Review(rating int, comment string) error {
	return v.check(reviewForm, map[string]any{"rating": rating, "comment": comment})
}

func (v *Validator) check(f form, in map[string]any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	def := v.schema.LookupPath(cue.ParsePath(f.def))
	if !def.Exists() {
		return fmt.Errorf("validate: schema has no %s", f.def)
	}
	err := def.Unify(v.ctx.Encode(in)).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	byField := map[string]string{}
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		field := ""
		if len(path) > 0 {
			field = path[len(path)-1]
		}
		if _, seen := byField[field]; !seen {
			byField[field] = e.Error()
		}
	}

	var errs Errors
	for _, field := range f.fields {
		if detail, ok := byField[field]; ok {
			errs = append(errs, describe(field, in[field], detail))
			delete(byField, field)
		}
	}
	rest := make([]string, 0, len(byField))
	for field := range byField {
		rest = append(rest, field)
	}
	slices.Sort(rest)
	for _, field := range rest {
		errs = append(errs, FieldError{Field: field, Key: "validation.invalid", Detail: byField[field]})
	}
	return errs
}

// minRunes mirrors the MinRunes constraints of the schema for message parameters.
var minRunes = map[string]int{
	"fullName":     2,
	"phoneNumber":  5,
	"addressLine1": 5,
	"city":         2,
	"postalCode":   3,
	"country":      2,
	"displayName":  2,
	"comment":      10,
}

func describe(field string, value any, detail string) FieldError {
	fe := FieldError{Field: field, Detail: detail}
	s, isString := value.(string)
	switch {
	case isString && strings.TrimSpace(s) == "":
		fe.Key = "validation.required"
	case field == "email":
		fe.Key = "validation.email"
	case field == "confirmPassword":
		fe.Key = "validation.password_mismatch"
	case field == "rating":
		fe.Key = "validation.rating"
	case field == "id":
		fe.Key = "validation.payment_method"
	case field == "comment" && utf8.RuneCountInString(s) > 1000:
		fe.Key = "validation.max_length"
		fe.Params = map[string]any{"max": 1000}
	case field == "phoneNumber" && utf8.RuneCountInString(s) >= minRunes[field]:
		fe.Key = "validation.phone"
	case minRunes[field] > 0:
		fe.Key = "validation.min_length"
		fe.Params = map[string]any{"min": minRunes[field]}
	default:
		fe.Key = "validation.invalid"
	}
	return fe
}
