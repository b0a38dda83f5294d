package reporting

import (
	"fmt"
	"strings"
	"time"

	"kraken-tools/internal/domain"
)

// RenderRankingMarkdown renders the console summary of a ranking.
func RenderRankingMarkdown(ranking *domain.VolumeRanking, conv *domain.ConversionMap, limit int) string {
	return RenderMarkdown(BuildRankingReport(ranking, conv, limit))
}

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *RankingReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# USD Volume Ranking\n\n")
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	}
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Pairs: %d | Total USD volume (24h): %s\n\n", r.TotalPairs, formatUSD(r.TotalUSDVolume)))

	// Top pairs
	sb.WriteString(fmt.Sprintf("## Top %d Pairs\n\n", len(r.Top)))
	if len(r.Top) == 0 {
		sb.WriteString("No pairs ranked.\n\n")
	} else {
		sb.WriteString("| Rank | Pair | Base Volume | Quote Volume | USD Volume |\n")
		sb.WriteString("|------|------|-------------|--------------|------------|\n")
		for _, rec := range r.Top {
			pair := rec.Pair
			if !rec.Converted {
				pair += " *"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %.2f | %s |\n",
				rec.Rank, pair, rec.BaseVolume24h, rec.QuoteVolume24h, formatUSD(rec.USDVolume24h)))
		}
		sb.WriteString("\n")
	}

	// Data quality
	if len(r.Quality) > 0 {
		sb.WriteString("## Data Quality\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		allPass := true
		for _, check := range r.Quality {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			} else {
				allPass = false
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")
		if allPass {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Treat affected USD figures as suspect.\n\n")
		}
	}

	// Conversion map
	if len(r.Rates) > 0 {
		sb.WriteString("## Conversion Rates\n\n")
		sb.WriteString("| Currency | USD Rate |\n")
		sb.WriteString("|----------|----------|\n")
		for _, rate := range r.Rates {
			sb.WriteString(fmt.Sprintf("| %s | %g |\n", rate.Currency, rate.USDRate))
		}
		sb.WriteString("\n")
	}

	// Unconverted
	if len(r.Unconverted) > 0 {
		sb.WriteString("## Unconverted Currencies\n\n")
		sb.WriteString("No USD rate was found for these quote currencies; their USD volume uses a rate of 1.0 and is suspect. ")
		sb.WriteString("Rows marked * are affected.\n\n")
		for _, c := range r.Unconverted {
			sb.WriteString(fmt.Sprintf("- %s\n", c))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatUSD renders a dollar amount with thousands separators and cents.
func formatUSD(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var sb strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(ch)
	}

	out := "$" + sb.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
