package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/jonboulle/clockwork"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// Submitter validates and creates feedback items.
type Submitter struct {
	items   domain.ItemWriter
	metrics *metrics.VoteMetrics
	announcer
}

// NewSubmitter creates a submitter. publisher and m may be nil.
func NewSubmitter(items domain.ItemWriter, publisher domain.ChangePublisher, m *metrics.VoteMetrics, clock clockwork.Clock) *Submitter {
	return &Submitter{
		items:     items,
		metrics:   m,
		announcer: announcer{publisher: publisher, clock: clock},
	}
}

// Submit creates an item authored by author. Title and description are trimmed;
// an empty description is stored as absent.
func (s *Submitter) Submit(ctx context.Context, author domain.Identity, title, description string) (*domain.Item, error) {
	if !author.Present() {
		return nil, domain.ErrAuthRequired
	}

	item, err := NormalizeSubmission(author, title, description)
	if err != nil {
		s.record("invalid")
		return nil, err
	}

	created, err := s.items.CreateItem(ctx, item)
	if err != nil {
		s.record("error")
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	s.record("ok")
	slog.InfoContext(ctx, "Feedback submitted", "item_id", created.ID, "author", author)
	s.announce(ctx, domain.CollectionFeedback, domain.OpInsert)
	return created, nil
}

// NormalizeSubmission trims and validates a submission.
func NormalizeSubmission(author domain.Identity, title, description string) (domain.NewItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.NewItem{}, domain.ErrTitleRequired
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return domain.NewItem{}, fmt.Errorf("%w: %d > %d characters", domain.ErrTitleTooLong, n, MaxTitleLength)
	}

	item := domain.NewItem{Title: title, CreatedBy: author}

	description = strings.TrimSpace(description)
	if n := utf8.RuneCountInString(description); n > MaxDescriptionLength {
		return domain.NewItem{}, fmt.Errorf("%w: %d > %d characters", domain.ErrDescTooLong, n, MaxDescriptionLength)
	}
	if description != "" {
		item.Description = &description
	}
	return item, nil
}

func (s *Submitter) record(result string) {
	if s.metrics != nil {
		s.metrics.Submissions.WithLabelValues(result).Inc()
	}
}
