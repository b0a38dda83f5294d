package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"kraken-tools/internal/domain"
)

// TickerTimestampLayout is the timestamp format of the ticker history table.
const TickerTimestampLayout = "2006-01-02 15:04:05.000"

// RankingCSVHeader is the header line of the ranking table.
const RankingCSVHeader = "pair,base_volume_24h,quote_volume_24h,usd_volume_24h"

// TickerCSVHeader is the header line of the ticker history table.
const TickerCSVHeader = "timestamp,pair,type,bid,bid_qty,ask,ask_qty,last,volume,vwap,low,high,change,change_pct"

// RenderRankingCSV renders ranked volume records as CSV string.
func RenderRankingCSV(records []domain.VolumeRecord) string {
	var sb strings.Builder

	sb.WriteString(RankingCSVHeader)
	sb.WriteString("\n")

	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s\n",
			r.Pair,
			formatFloat(r.BaseVolume24h),
			formatFloat(r.QuoteVolume24h),
			formatFloat(r.USDVolume24h),
		))
	}

	return sb.String()
}

// RenderTickerCSV renders live ticker records as CSV string, in the given order.
func RenderTickerCSV(records []*domain.LiveTickerRecord) string {
	var sb strings.Builder

	sb.WriteString(TickerCSVHeader)
	sb.WriteString("\n")

	for _, r := range records {
		sb.WriteString(r.Timestamp.UTC().Format(TickerTimestampLayout))
		sb.WriteString(",")
		sb.WriteString(r.Symbol)
		sb.WriteString(",")
		sb.WriteString(string(r.MessageType))
		for _, v := range []float64{
			r.Bid, r.BidQty, r.Ask, r.AskQty, r.Last, r.Volume,
			r.VWAP, r.Low, r.High, r.Change, r.ChangePct,
		} {
			sb.WriteString(",")
			sb.WriteString(formatFloat(v))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatFloat uses the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
