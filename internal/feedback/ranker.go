package feedback

import (
	"cmp"
	"slices"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
)

// Rank returns a new slice ordered by net votes descending, then newest first.
// The item ID breaks any remaining tie so repeated sorts of the same input agree.
// The input slice is left untouched.
func Rank(items []domain.AnnotatedItem) []domain.AnnotatedItem {
	ranked := slices.Clone(items)
	slices.SortFunc(ranked, Compare)
	return ranked
}

// Compare is the ranking comparator used by Rank.
func Compare(a, b domain.AnnotatedItem) int {
	if c := cmp.Compare(b.Net, a.Net); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
