package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-idea-tracker/internal/entity"
	"golang-idea-tracker/pkg/utils"
)

// FormatPortfolioSummaryMessage formats the refreshed open positions into multiple
// Markdown strings for Telegram, ensuring each message does not exceed the
// specified maximum length.
func FormatPortfolioSummaryMessage(positions []entity.StockPosition, syncedAt time.Time) []string {
	if len(positions) == 0 {
		return []string{"📊 *Portfolio Snapshot*\n\nNo open positions to report."}
	}

	const maxLen = 4090
	var messages []string
	var currentMessage strings.Builder
	part := 1

	totalProfit := 0.0
	for _, p := range positions {
		if p.UnrealizedProfit != nil {
			totalProfit += *p.UnrealizedProfit
		}
	}

	// Helper function to start a new message part with the correct header
	startNewPart := func() {
		currentMessage.Reset()
		if part == 1 {
			currentMessage.WriteString("📊 *Portfolio Snapshot* 📊\n")
			currentMessage.WriteString(fmt.Sprintf("🕒 %s\n", utils.PrettyDate(syncedAt)))
			currentMessage.WriteString(fmt.Sprintf("💼 *Total Unrealized P/L:* %+.0f\n\n", totalProfit))
		} else {
			currentMessage.WriteString(fmt.Sprintf("---*Portfolio Snapshot Part %d*---\n\n", part))
		}
	}

	// Start the first part
	startNewPart()

	for _, p := range positions {
		var entryBuilder strings.Builder
		entryBuilder.WriteString(fmt.Sprintf("📈 *- - - - - %s - - - - -*\n", p.StockCode))
		entryBuilder.WriteString(fmt.Sprintf("💰 *Entry:* %.0f × %.0f\n", p.EntryPrice, p.Quantity))

		if p.CurrentPrice != nil {
			entryBuilder.WriteString(fmt.Sprintf("💵 *Current:* %.0f\n", *p.CurrentPrice))
		} else {
			entryBuilder.WriteString("💵 *Current:* n/a\n")
		}

		if p.UnrealizedProfit != nil && p.UnrealizedReturnPct != nil {
			var profitIcon string
			switch {
			case *p.UnrealizedProfit > 0:
				profitIcon = "🟢"
			case *p.UnrealizedProfit < 0:
				profitIcon = "🔴"
			default:
				profitIcon = "⚪"
			}
			entryBuilder.WriteString(fmt.Sprintf("%s *P/L:* %+.0f (%+.2f%%)\n", profitIcon, *p.UnrealizedProfit, *p.UnrealizedReturnPct))
		} else {
			entryBuilder.WriteString("⚪ *P/L:* no price data\n")
		}

		entryBuilder.WriteString("\n")
		entryString := entryBuilder.String()

		// Check if adding the new entry exceeds the max length. We assume a single entry doesn't exceed the limit.
		if currentMessage.Len()+len(entryString) > maxLen {
			messages = append(messages, currentMessage.String())

			part++
			startNewPart()
		}

		currentMessage.WriteString(entryString)
	}

	messages = append(messages, currentMessage.String())

	return messages
}

// FormatDisclosureAlertMessage formats a newly discovered disclosure into a
// Markdown string for Telegram.
func FormatDisclosureAlertMessage(disclosure *entity.Disclosure) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("📢 [%s] New Disclosure\n", disclosure.StockCode))
	builder.WriteString(fmt.Sprintf("📄 %s\n", disclosure.Title))
	if disclosure.Source != "" {
		builder.WriteString(fmt.Sprintf("🏛 *Source:* %s\n", disclosure.Source))
	}
	if disclosure.PublishedAt != nil {
		builder.WriteString(fmt.Sprintf("🕒 %s\n", utils.PrettyDate(*disclosure.PublishedAt)))
	}
	builder.WriteString(fmt.Sprintf("🔗 %s\n", disclosure.URL))
	return builder.String()
}

func FormatSyncErrorMessage(time time.Time, kind string, errMsg string) string {
	return fmt.Sprintf(`📛 [SYNC FAILED]
%s
🔧 %s
⚠️ %s
`, utils.PrettyDate(time), kind, errMsg)
}
