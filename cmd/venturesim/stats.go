package main

import (
	"fmt"
	"io"

	"github.com/nvandessel/venturesim/internal/montecarlo"
)

// aggregateRows lists the cross-run metrics in presentation order.
func aggregateRows(agg montecarlo.Aggregate) []struct {
	Name   string
	Metric montecarlo.Metric
} {
	return []struct {
		Name   string
		Metric montecarlo.Metric
	}{
		{"failure_rate", agg.FailureRate},
		{"success_rate", agg.SuccessRate},
		{"funded_rate", agg.FundedRate},
		{"total_funding", agg.TotalFunding},
		{"mean_final_capital", agg.MeanFinalCapital},
		{"mean_final_pmf", agg.MeanFinalPMF},
		{"mean_final_valuation", agg.MeanFinalValuation},
		{"top_valuation", agg.TopValuation},
		{"mean_months_survived", agg.MeanMonthsSurvived},
		{"median_months_survived", agg.MedianMonthsSurvived},
		{"final_market_size", agg.FinalMarketSize},
	}
}

// printAggregate renders the outcome totals and the cross-run metric table.
func printAggregate(w io.Writer, agg montecarlo.Aggregate) {
	t := agg.Totals
	fmt.Fprintf(w, "Outcomes across %d runs: %d failed, %d exited, %d still active (%d funded)\n\n",
		agg.Runs-agg.FailedRuns, t.Failed, t.Exited, t.Active, t.Funded)

	fmt.Fprintf(w, "%-24s %11s %11s %11s %11s\n", "Metric", "Mean", "Std", "Min", "Max")
	fmt.Fprintln(w, repeatChar('-', 72))
	for _, row := range aggregateRows(agg) {
		fmt.Fprintf(w, "%-24s %11.4g %11.4g %11.4g %11.4g\n",
			row.Name, row.Metric.Mean, row.Metric.Std, row.Metric.Min, row.Metric.Max)
	}
}

// printMonthlyTail renders the last up-to-n months of the cross-run
// monthly series. Month numbers are 1-based.
func printMonthlyTail(w io.Writer, monthly montecarlo.MonthlySeries, n int) {
	total := len(monthly.Active)
	if total == 0 {
		return
	}
	start := total - n
	if start < 0 {
		start = 0
	}

	fmt.Fprintf(w, "Monthly means (last %d of %d):\n\n", total-start, total)
	fmt.Fprintf(w, "%6s %9s %9s %9s %9s %13s\n",
		"Month", "Active", "Failed", "Exited", "Funded", "Market size")
	fmt.Fprintln(w, repeatChar('-', 60))
	for i := start; i < total; i++ {
		fmt.Fprintf(w, "%6d %9.1f %9.1f %9.1f %9.1f %13.4g\n",
			i+1, monthly.Active[i], monthly.Failed[i], monthly.Exited[i],
			monthly.FundedTotal[i], monthly.MarketSize[i])
	}
}

func repeatChar(c rune, n int) string {
	result := make([]rune, n)
	for i := range result {
		result[i] = c
	}
	return string(result)
}
