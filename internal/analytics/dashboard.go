package analytics

import (
	"time"

	"zenbudget/internal/core"
)

// RecentCount is the number of transactions shown on the dashboard.
const RecentCount = 5

// Dashboard is everything the overview screen renders.
type Dashboard struct {
	Greeting string              `json:"greeting"`
	View     View                `json:"view"`
	Metrics  core.Metrics        `json:"metrics"`
	Series   []core.Bucket       `json:"series"`
	Recent   []core.Transaction  `json:"recent"`
	Budgets  []core.BudgetStatus `json:"budgets"`
	Over     []core.BudgetStatus `json:"overBudget"`
	Months   []core.MonthOption  `json:"months"`
	AsOf     time.Time           `json:"asOf"`
}

// BuildDashboard assembles the overview for user from a data snapshot.
func BuildDashboard(user *core.User, txs []core.Transaction, cats []core.Category, view View, now time.Time) Dashboard {
	greeting := "Friend"
	if user != nil && user.DisplayName != "" {
		greeting = user.DisplayName
	}
	budgets := Budgets(cats, txs, now, core.Expense)
	return Dashboard{
		Greeting: greeting,
		View:     view,
		Metrics:  MonthlyMetrics(txs, now),
		Series:   Series(txs, view, now),
		Recent:   Recent(txs, RecentCount),
		Budgets:  budgets,
		Over:     OverBudget(budgets),
		Months:   AvailableMonths(txs, now.Location()),
		AsOf:     now,
	}
}

// CategoryNames indexes category names by ID.
func CategoryNames(cats []core.Category) map[string]string {
	m := make(map[string]string, len(cats))
	for _, c := range cats {
		m[c.ID] = c.Name
	}
	return m
}

// CategoryName resolves id, rendering a dangling reference as "Unknown".
func CategoryName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return "Unknown"
}
