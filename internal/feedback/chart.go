package feedback

import "github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"

const (
	// DefaultChartSize is the number of bars in the top-voted chart.
	DefaultChartSize = 5
	chartLabelRunes  = 12
)

// Chart builds the top-n bars from an already ranked list.
// Bars never go below zero; the vote breakdown is kept for tooltips.
func Chart(ranked []domain.AnnotatedItem, n int) []domain.ChartBar {
	if n <= 0 {
		n = DefaultChartSize
	}
	n = min(n, len(ranked))

	bars := make([]domain.ChartBar, n)
	for i, item := range ranked[:n] {
		bars[i] = domain.ChartBar{
			ItemID:    item.ID,
			Label:     chartLabel(item.Title),
			Title:     item.Title,
			Votes:     max(0, item.Net),
			Upvotes:   item.Upvotes,
			Downvotes: item.Downvotes,
		}
	}
	return bars
}

func chartLabel(title string) string {
	runes := []rune(title)
	if len(runes) <= chartLabelRunes {
		return title
	}
	return string(runes[:chartLabelRunes]) + "..."
}
