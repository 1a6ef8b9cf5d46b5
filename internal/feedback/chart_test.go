package feedback

import (
	"testing"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChart_TopFiveOfRanked(t *testing.T) {
	var items []domain.AnnotatedItem
	for i, net := range []int{9, 7, 5, 3, 2, 1, 0} {
		items = append(items, annotated(string(rune('a'+i)), net, t0.Add(time.Duration(i)*time.Minute)))
	}

	bars := Chart(Rank(items), DefaultChartSize)

	require.Len(t, bars, 5)
	assert.Equal(t, "a", bars[0].ItemID)
	assert.Equal(t, 9, bars[0].Votes)
	assert.Equal(t, "e", bars[4].ItemID)
}

func TestChart_NegativeNetClampsToZero(t *testing.T) {
	item := annotated("neg", -3, t0)

	bars := Chart([]domain.AnnotatedItem{item}, DefaultChartSize)

	require.Len(t, bars, 1)
	assert.Equal(t, 0, bars[0].Votes)
	assert.Equal(t, 3, bars[0].Downvotes)
}

func TestChart_LabelTruncation(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Dark mode", "Dark mode"},
		{"Twelve chars", "Twelve chars"},
		{"Thirteen char", "Thirteen cha..."},
		{"Überraschungsei", "Überraschung..."},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, chartLabel(tt.title))
		})
	}
}

func TestChart_FewerItemsThanSize(t *testing.T) {
	bars := Chart([]domain.AnnotatedItem{annotated("only", 1, t0)}, 5)
	require.Len(t, bars, 1)
	assert.Equal(t, "only", bars[0].Title)
	assert.Empty(t, Chart(nil, 5))
}
