package app

import (
	"context"
	"fmt"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/feedback"
	"github.com/jonboulle/clockwork"
)

// Service is the application layer. It wires the store and change feed into the
// feedback pipeline and is the only thing the HTTP shell and CLI talk to.
type Service struct {
	feed        domain.ChangeFeed
	fetcher     *feedback.Fetcher
	mutator     *feedback.Mutator
	submitter   *feedback.Submitter
	clock       clockwork.Clock
	viewConfig  ViewConfig
	viewMetrics *metrics.ViewMetrics
}

// NewService creates the application service.
// publisher may be nil when the change feed is driven by the store itself.
// viewMetrics and voteMetrics may be nil.
func NewService(store domain.Store, feed domain.ChangeFeed, publisher domain.ChangePublisher, clock clockwork.Clock, cfg ViewConfig, viewMetrics *metrics.ViewMetrics, voteMetrics *metrics.VoteMetrics) *Service {
	return &Service{
		feed:        feed,
		fetcher:     feedback.NewFetcher(store, store, viewMetrics),
		mutator:     feedback.NewMutator(store, store, publisher, voteMetrics, clock),
		submitter:   feedback.NewSubmitter(store, publisher, voteMetrics, clock),
		clock:       clock,
		viewConfig:  cfg.withDefaults(),
		viewMetrics: viewMetrics,
	}
}

// NewView returns an idle live view for voter. The caller mounts and unmounts it.
func (s *Service) NewView(voter domain.Identity) *LiveView {
	return NewLiveView(s.fetcher, s.feed, voter, s.clock, s.viewConfig, s.viewMetrics)
}

// Snapshot runs a single fetch, rank and chart pass for voter without subscribing.
func (s *Service) Snapshot(ctx context.Context, voter domain.Identity) (domain.Snapshot, error) {
	items, err := s.fetcher.Fetch(ctx, voter)
	if err != nil {
		return domain.Snapshot{}, err
	}

	ranked := feedback.Rank(items)
	return domain.Snapshot{
		Voter:     voter,
		Items:     ranked,
		Chart:     feedback.Chart(ranked, s.viewConfig.ChartSize),
		FetchedAt: s.clock.Now(),
	}, nil
}

// Chart returns the top-voted bars over all items.
func (s *Service) Chart(ctx context.Context) ([]domain.ChartBar, error) {
	snap, err := s.Snapshot(ctx, domain.Anonymous)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart: %w", err)
	}
	return snap.Chart, nil
}

// CastVote applies voter's desired polarity on itemID against their current vote.
func (s *Service) CastVote(ctx context.Context, itemID string, voter domain.Identity, desired domain.Polarity) (domain.Operation, error) {
	return s.mutator.Cast(ctx, itemID, voter, desired)
}

// ApplyVote applies a vote request whose current polarity the caller already knows.
func (s *Service) ApplyVote(ctx context.Context, req feedback.VoteRequest) (domain.Operation, error) {
	return s.mutator.Apply(ctx, req)
}

// Submit creates a feedback item authored by author.
func (s *Service) Submit(ctx context.Context, author domain.Identity, title, description string) (*domain.Item, error) {
	return s.submitter.Submit(ctx, author, title, description)
}
