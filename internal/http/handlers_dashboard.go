package http

import (
	"net/http"
	"strings"

	"zenbudget/internal/analytics"
	"zenbudget/internal/core"
)

// handleDashboard serves the overview for the requested chart view. Results
// are cached per state version, so any change to the user's data is visible
// on the next request.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := ParseView(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())
	snap := sess.State().Snapshot()
	now := s.now()

	dash, hit := s.deps.Dashboards.GetOrBuild(sess.UID(), view, snap.Version, now, func() analytics.Dashboard {
		return analytics.BuildDashboard(snap.User, snap.Transactions, snap.Categories, view, now)
	})
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, struct {
		analytics.Dashboard
		DataLoading bool `json:"dataLoading"`
	}{dash, snap.DataLoading})
}

// handleBudgets lists the current month's budget usage. The optional type
// parameter narrows it to income or expense categories.
func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	var typ core.TransactionType
	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" && v != "all" {
		typ = core.TransactionType(v)
		if !typ.Valid() {
			writeError(w, r, badRequest(core.ErrInvalidType))
			return
		}
	}
	snap := sessionFrom(r.Context()).State().Snapshot()
	budgets := analytics.Budgets(snap.Categories, snap.Transactions, s.now(), typ)
	writeJSON(w, http.StatusOK, map[string]any{
		"budgets":    budgets,
		"overBudget": analytics.OverBudget(budgets),
	})
}
