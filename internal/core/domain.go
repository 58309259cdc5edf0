package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryFood          Category = "food"
	CategoryTravel        Category = "travel"
	CategoryShopping      Category = "shopping"
	CategoryRent          Category = "rent"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryHealth        Category = "health"
	CategoryOther         Category = "other"
)

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
	PaymentBank PaymentMethod = "bank"
)

const maxDescriptionLength = 200

type (
	Category      string
	PaymentMethod string

	// Date is a calendar date; the time component is always midnight UTC.
	Date struct {
		time.Time
	}

	// Expense is a single spending record scoped to one owner.
	Expense struct {
		ID          string
		OwnerID     string
		Date        Date
		Category    Category
		Description string
		Amount      Money
		Payment     PaymentMethod
		Tag         string // optional free-form label
		CreatedAt   time.Time
	}

	// ExpenseDraft carries the caller-supplied fields of a new expense.
	// The store assigns ID and CreatedAt on insert.
	ExpenseDraft struct {
		Date        Date
		Category    Category
		Description string
		Amount      Money
		Payment     PaymentMethod
		Tag         string
	}

	// ExpensePatch is a partial update; nil fields are left untouched.
	ExpensePatch struct {
		Date        *Date
		Category    *Category
		Description *string
		Amount      *Money
		Payment     *PaymentMethod
		Tag         *string
	}

	// MonthlyBudget is one owner's spending limit for one calendar month.
	// At most one exists per (owner, month).
	MonthlyBudget struct {
		ID        string
		OwnerID   string
		Month     Month
		Amount    Money
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrEmptyDescription     = errors.New("empty description")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrEmptyPatch           = errors.New("no fields to update")
)

// ValidationError reports which field of a record failed validation.
// Rejected records never reach a store.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// categories holds the closed set in enumeration order. Aggregation
// tie-breaking depends on this order, so it is append-only.
var categories = [...]Category{
	CategoryFood,
	CategoryTravel,
	CategoryShopping,
	CategoryRent,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryHealth,
	CategoryOther,
}

var paymentMethods = [...]PaymentMethod{
	PaymentCash,
	PaymentCard,
	PaymentUPI,
	PaymentBank,
}

// Categories returns every expense category in enumeration order
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory normalizes and checks a raw category value
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// PaymentMethods returns every payment method in enumeration order
func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods[:])
	return out
}

func (p PaymentMethod) Valid() bool {
	for _, known := range paymentMethods {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePaymentMethod normalizes and checks a raw payment method value
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	p := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, s)
	}
	return p, nil
}

// NewDate creates a Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a date in "2006-01-02" form
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// In reports whether the date falls inside the given month
func (d Date) In(m Month) bool {
	return d.Time.Year() == m.Year && d.Time.Month() == m.Month
}

func (d ExpenseDraft) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return invalid("date", err)
	}
	if len(strings.TrimSpace(d.Description)) == 0 {
		return invalid("description", ErrEmptyDescription)
	}
	if len(d.Description) > maxDescriptionLength {
		return invalid("description", ErrDescriptionTooLong)
	}
	if err := d.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if !d.Category.Valid() {
		return invalid("category", fmt.Errorf("%w: %q", ErrUnknownCategory, string(d.Category)))
	}
	if !d.Payment.Valid() {
		return invalid("payment_method", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, string(d.Payment)))
	}
	return nil
}

// Expense materializes the draft for the given owner. ID and CreatedAt
// stay zero until a store assigns them.
func (d ExpenseDraft) Expense(ownerID string) Expense {
	return Expense{
		OwnerID:     ownerID,
		Date:        d.Date,
		Category:    d.Category,
		Description: strings.TrimSpace(d.Description),
		Amount:      d.Amount,
		Payment:     d.Payment,
		Tag:         strings.TrimSpace(d.Tag),
	}
}

func (e Expense) Validate() error {
	return ExpenseDraft{
		Date:        e.Date,
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		Payment:     e.Payment,
		Tag:         e.Tag,
	}.Validate()
}

func (p ExpensePatch) Validate() error {
	if p.Date == nil && p.Category == nil && p.Description == nil &&
		p.Amount == nil && p.Payment == nil && p.Tag == nil {
		return invalid("patch", ErrEmptyPatch)
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return invalid("date", err)
		}
	}
	if p.Description != nil {
		if len(strings.TrimSpace(*p.Description)) == 0 {
			return invalid("description", ErrEmptyDescription)
		}
		if len(*p.Description) > maxDescriptionLength {
			return invalid("description", ErrDescriptionTooLong)
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return invalid("amount", err)
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		return invalid("category", fmt.Errorf("%w: %q", ErrUnknownCategory, string(*p.Category)))
	}
	if p.Payment != nil && !p.Payment.Valid() {
		return invalid("payment_method", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, string(*p.Payment)))
	}
	return nil
}

// Apply copies the set fields of the patch onto the expense
func (p ExpensePatch) Apply(e *Expense) {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Payment != nil {
		e.Payment = *p.Payment
	}
	if p.Tag != nil {
		e.Tag = strings.TrimSpace(*p.Tag)
	}
}

func (b MonthlyBudget) Validate() error {
	if err := b.Month.Validate(); err != nil {
		return invalid("month", err)
	}
	if err := b.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	return nil
}
