package core

// Bucket is one period of a chart series.
type Bucket struct {
	Label   string `json:"label"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// Metrics summarizes one calendar month.
type Metrics struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// BudgetStatus is the usage of a category in the current month.
type BudgetStatus struct {
	Category   Category `json:"category"`
	Spent      Money    `json:"spent"`
	Limit      Money    `json:"limit"`
	HasLimit   bool     `json:"hasLimit"`
	Percentage float64  `json:"percentage"`
	OverBudget bool     `json:"overBudget"`
}

// MonthOption is a month that has at least one transaction.
type MonthOption struct {
	Value string `json:"value"` // 2006-01
	Label string `json:"label"` // January 2006
}

// DefaultCategories are seeded into every new profile.
func DefaultCategories() []Category {
	limit := func(c int64) *Money { return &Money{Cents: c * 100} }
	return []Category{
		{Name: "Salary", Color: "#10b981", Icon: IconWallet, Type: Income},
		{Name: "Freelance", Color: "#34d399", Icon: IconBriefcase, Type: Income},
		{Name: "Housing", Color: "#f43f5e", Icon: IconHome, Type: Expense, BudgetLimit: limit(30000)},
		{Name: "Food", Color: "#f59e0b", Icon: IconUtensils, Type: Expense, BudgetLimit: limit(15000)},
		{Name: "Transport", Color: "#3b82f6", Icon: IconCar, Type: Expense, BudgetLimit: limit(5000)},
		{Name: "Entertainment", Color: "#8b5cf6", Icon: IconFilm, Type: Expense, BudgetLimit: limit(5000)},
		{Name: "Utilities", Color: "#64748b", Icon: IconZap, Type: Expense, BudgetLimit: limit(4000)},
	}
}
