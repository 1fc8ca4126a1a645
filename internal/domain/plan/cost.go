// Where: cli/internal/domain/plan/cost.go
// What: Fixed monthly cost model and budget check.
// Why: Give plan, approval and memory one shared estimate.
package plan

const (
	baseMonthlyCost       = 8.0
	perServiceMonthlyCost = 5.0
)

// EstimateCost returns the estimated monthly cost in USD.
func EstimateCost(p Plan) float64 {
	return baseMonthlyCost + perServiceMonthlyCost*float64(len(p.Services))
}

// WithinBudget reports whether the estimate fits the plan budget.
// A non-positive budget means no ceiling.
func WithinBudget(p Plan) bool {
	if p.Budget <= 0 {
		return true
	}
	return EstimateCost(p) <= p.Budget
}
