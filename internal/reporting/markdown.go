package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders an aggregate report as a Markdown string.
func RenderMarkdown(r *AggregateReport) string {
	var sb strings.Builder

	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategies: %d | Positions: %d\n\n", r.StrategyCount, r.TotalPositions))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Wins | %d |\n", r.Wins))
	sb.WriteString(fmt.Sprintf("| Losses | %d |\n", r.Losses))
	sb.WriteString(fmt.Sprintf("| Break-evens | %d |\n", r.BreakEvens))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", r.WinRate))
	sb.WriteString(fmt.Sprintf("| Profit Mean | %.6f |\n", r.ProfitMean))
	sb.WriteString(fmt.Sprintf("| Profit Median | %.6f |\n", r.ProfitMedian))
	sb.WriteString(fmt.Sprintf("| Profit Stddev | %.6f |\n", r.ProfitStddev))
	sb.WriteString(fmt.Sprintf("| Profit P10 | %.6f |\n", r.ProfitP10))
	sb.WriteString(fmt.Sprintf("| Profit P90 | %.6f |\n", r.ProfitP90))
	sb.WriteString(fmt.Sprintf("| Profit Min | %.6f |\n", r.ProfitMin))
	sb.WriteString(fmt.Sprintf("| Profit Max | %.6f |\n", r.ProfitMax))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.6f |\n", r.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", r.MaxConsecutiveLosses))
	sb.WriteString("\n")

	sb.WriteString("## Per-Strategy Results\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| Strategy | Series | Positions | Wins | Losses | Break-evens | Total P/L |\n")
		sb.WriteString("|----------|--------|-----------|------|--------|-------------|-----------|\n")
		for _, row := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %d | %d | %.6f |\n",
				row.StrategyName, row.SeriesName,
				row.Positions, row.Wins, row.Losses, row.BreakEvens,
				row.TotalProfitLoss))
		}
	} else {
		sb.WriteString("No strategy results available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
