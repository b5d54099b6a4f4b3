package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	OneTime Frequency = "one-time"
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	MaxDescriptionLength  = 200
	MaxCategoryNameLength = 50
	DefaultCategoryColor  = "#6366f1"
)

type (
	TransactionType string

	Frequency string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string          `json:"id"`
		Amount      Money           `json:"amount"`
		Date        time.Time       `json:"date"`
		CategoryID  string          `json:"categoryId"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
		IsRecurring bool            `json:"isRecurring"`
		Frequency   Frequency       `json:"frequency"`
		// RecurrenceOf is the ID of the recurring transaction this one was
		// generated from, empty for transactions entered by the user.
		RecurrenceOf string `json:"recurrenceOf,omitempty"`
	}

	Category struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Color       string          `json:"color"`
		Icon        Icon            `json:"icon"`
		Type        TransactionType `json:"type"`
		BudgetLimit *Money          `json:"budgetLimit,omitempty"`
	}

	User struct {
		UID         string `json:"uid"`
		DisplayName string `json:"displayName"`
		Email       string `json:"email"`
	}
)

var (
	ErrInvalidDay           = errors.New("invalid day")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrEmptyDescription     = errors.New("empty description")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory        = errors.New("empty category")
	ErrEmptyCategoryName    = errors.New("empty category name")
	ErrCategoryNameTooLong  = errors.New("category name too long (max 50 characters)")
	ErrInvalidBudgetLimit   = errors.New("invalid budget limit")
	ErrCategoryTypeMismatch = errors.New("category type does not match transaction type")
	ErrEmptyUID             = errors.New("empty user id")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DayOf returns the calendar day of t in loc as a Date.
func DayOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return NewDate(y, int(m), d)
}

// String formats the date as 2006-01-02.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case OneTime, Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Normalize forces a non-recurring transaction to the one-time frequency.
func (t *Transaction) Normalize() {
	t.Description = strings.TrimSpace(t.Description)
	if !t.IsRecurring {
		t.Frequency = OneTime
	}
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !t.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if t.IsRecurring && t.Frequency == OneTime {
		return fmt.Errorf("%w: recurring transaction needs a repeating frequency", ErrInvalidFrequency)
	}
	if !t.IsRecurring && t.Frequency != OneTime {
		return fmt.Errorf("%w: one-off transaction must be one-time", ErrInvalidFrequency)
	}
	return nil
}

// Normalize trims the name, applies the default color and icon and drops the
// budget limit of income categories.
func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	if strings.TrimSpace(c.Color) == "" {
		c.Color = DefaultCategoryColor
	}
	c.Icon = ParseIcon(string(c.Icon))
	if c.Type == Income {
		c.BudgetLimit = nil
	}
	if c.BudgetLimit != nil && c.BudgetLimit.Cents == 0 {
		c.BudgetLimit = nil
	}
}

func (c Category) Validate() error {
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.BudgetLimit != nil && c.BudgetLimit.Cents < 0 {
		return ErrInvalidBudgetLimit
	}
	return nil
}

// Limit returns the budget limit and whether one is set. Income categories
// never carry a limit.
func (c Category) Limit() (Money, bool) {
	if c.Type != Expense || c.BudgetLimit == nil || c.BudgetLimit.Cents <= 0 {
		return Money{}, false
	}
	return *c.BudgetLimit, true
}

// FallbackDisplayName returns the local part of the email, or "User".
func FallbackDisplayName(email string) string {
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return "User"
}
