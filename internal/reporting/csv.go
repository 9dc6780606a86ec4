// Package reporting renders backtest output for offline inspection.
package reporting

import (
	"fmt"
	"strings"

	"token-unlock-lab/internal/domain"
)

// RenderCSV renders a backtest result's per-trade breakdown as CSV,
// followed by a summary row.
func RenderCSV(token string, result *domain.BacktestResult) string {
	var sb strings.Builder

	sb.WriteString("token,event_ts_ms,buy_ts_ms,sell_ts_ms,buy_price,sell_price,roi\n")

	for _, o := range result.Outcomes {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%.8f,%.8f,%.6f\n",
			token,
			o.EventTimestampMs,
			o.BuyTimestampMs,
			o.SellTimestampMs,
			o.BuyPrice,
			o.SellPrice,
			o.ROI,
		))
	}

	sb.WriteString("\n")
	sb.WriteString("trades,wins,skipped,win_rate,avg_roi\n")
	sb.WriteString(fmt.Sprintf("%d,%d,%d,%.6f,%.6f\n",
		result.Trades,
		result.Wins,
		result.Skipped,
		result.WinRate,
		result.AvgROI,
	))

	return sb.String()
}
