package analytics

import (
	"time"

	"zenbudget/internal/core"
)

// BudgetUsage reports how much of cat's limit the current month's
// transactions use. Without a positive limit the percentage is 0 and the
// category is never over budget.
func BudgetUsage(cat core.Category, txs []core.Transaction, now time.Time) core.BudgetStatus {
	loc := now.Location()
	current := monthOf(now, loc)

	var spent core.Money
	for _, tx := range txs {
		if tx.CategoryID == cat.ID && monthOf(tx.Date, loc) == current {
			spent = spent.Add(tx.Amount)
		}
	}

	st := core.BudgetStatus{Category: cat, Spent: spent}
	limit, ok := cat.Limit()
	if !ok {
		return st
	}
	st.Limit = limit
	st.HasLimit = true
	st.Percentage = spent.Decimal().Div(limit.Decimal()).Shift(2).InexactFloat64()
	st.OverBudget = spent.Cents > limit.Cents
	return st
}

// Budgets returns the usage of every category of type typ, in category order.
// An empty typ selects all categories.
func Budgets(cats []core.Category, txs []core.Transaction, now time.Time, typ core.TransactionType) []core.BudgetStatus {
	out := make([]core.BudgetStatus, 0, len(cats))
	for _, c := range cats {
		if typ != "" && c.Type != typ {
			continue
		}
		out = append(out, BudgetUsage(c, txs, now))
	}
	return out
}

// OverBudget returns the categories whose spending exceeds their limit.
func OverBudget(statuses []core.BudgetStatus) []core.BudgetStatus {
	out := []core.BudgetStatus{}
	for _, s := range statuses {
		if s.OverBudget {
			out = append(out, s)
		}
	}
	return out
}
