package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders per-strategy rows as a CSV string.
func RenderCSV(rows []StatementRow) string {
	var sb strings.Builder

	sb.WriteString("strategy_name,series_name,positions,wins,losses,break_evens,total_profit_loss\n")

	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%d,%.6f\n",
			row.StrategyName,
			row.SeriesName,
			row.Positions,
			row.Wins,
			row.Losses,
			row.BreakEvens,
			row.TotalProfitLoss,
		))
	}

	return sb.String()
}
