package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("got %s", d)
	}
	if _, err := ParseDate("09/03/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func validTransaction() Transaction {
	return Transaction{
		Amount:      Money{Cents: 1200},
		Date:        time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		CategoryID:  "food",
		Description: "Groceries",
		Type:        Expense,
		Frequency:   OneTime,
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"no category", func(tx *Transaction) { tx.CategoryID = " " }, ErrEmptyCategory},
		{"no description", func(tx *Transaction) { tx.Description = "" }, ErrEmptyDescription},
		{"bad frequency", func(tx *Transaction) { tx.Frequency = "hourly" }, ErrInvalidFrequency},
		{"recurring one-time", func(tx *Transaction) { tx.IsRecurring = true }, ErrInvalidFrequency},
		{"one-off monthly", func(tx *Transaction) { tx.Frequency = Monthly }, ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTransactionNormalizeForcesOneTime(t *testing.T) {
	tx := validTransaction()
	tx.Frequency = Weekly
	tx.Description = "  Rent  "
	tx.Normalize()
	if tx.Frequency != OneTime {
		t.Fatalf("expected one-time, got %s", tx.Frequency)
	}
	if tx.Description != "Rent" {
		t.Fatalf("description not trimmed: %q", tx.Description)
	}

	tx.IsRecurring = true
	tx.Frequency = Weekly
	tx.Normalize()
	if tx.Frequency != Weekly {
		t.Fatalf("recurring frequency must be kept, got %s", tx.Frequency)
	}
}

func TestCategoryNormalize(t *testing.T) {
	c := Category{Name: " Salary ", Type: Income, Icon: "rocket", BudgetLimit: &Money{Cents: 500}}
	c.Normalize()
	if c.BudgetLimit != nil {
		t.Fatalf("income category must not keep a budget limit")
	}
	if c.Icon != IconDefault {
		t.Fatalf("unknown icon should fall back to default, got %s", c.Icon)
	}
	if c.Color != DefaultCategoryColor || c.Name != "Salary" {
		t.Fatalf("unexpected normalization: %+v", c)
	}
	if _, ok := c.Limit(); ok {
		t.Fatalf("income category reported a limit")
	}

	e := Category{Name: "Food", Type: Expense, Icon: IconUtensils, BudgetLimit: &Money{Cents: 0}}
	e.Normalize()
	if e.BudgetLimit != nil {
		t.Fatalf("zero limit should be dropped")
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "Food", Type: Expense, BudgetLimit: &Money{Cents: 100}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []struct {
		c    Category
		want error
	}{
		{Category{Type: Expense}, ErrEmptyCategoryName},
		{Category{Name: "x", Type: "other"}, ErrInvalidType},
		{Category{Name: "x", Type: Expense, BudgetLimit: &Money{Cents: -1}}, ErrInvalidBudgetLimit},
	}
	for i, tc := range bads {
		if err := tc.c.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestParseIcon(t *testing.T) {
	if ParseIcon("Car") != IconCar {
		t.Fatalf("expected car icon")
	}
	if ParseIcon("") != IconDefault {
		t.Fatalf("empty name should map to default")
	}
	for _, i := range Icons() {
		if !i.Valid() {
			t.Fatalf("icon %s not valid", i)
		}
	}
}

func TestFallbackDisplayName(t *testing.T) {
	if got := FallbackDisplayName("jane@example.com"); got != "jane" {
		t.Fatalf("got %q", got)
	}
	if got := FallbackDisplayName(""); got != "User" {
		t.Fatalf("got %q", got)
	}
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	if len(cats) != 7 {
		t.Fatalf("expected 7 default categories, got %d", len(cats))
	}
	for _, c := range cats {
		if err := c.Validate(); err != nil {
			t.Fatalf("default category %s invalid: %v", c.Name, err)
		}
		if c.Type == Income && c.BudgetLimit != nil {
			t.Fatalf("income default %s has a limit", c.Name)
		}
	}
}
