package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/metrics"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/feedback"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/correlation"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultDebounce     = 150 * time.Millisecond
)

// ItemFetcher loads the annotated items shown to a viewer.
type ItemFetcher interface {
	Fetch(ctx context.Context, voter domain.Identity) ([]domain.AnnotatedItem, error)
}

// ViewConfig tunes a live view. A zero Debounce refreshes on every notification.
type ViewConfig struct {
	PollInterval time.Duration
	Debounce     time.Duration
	ChartSize    int
}

func (c ViewConfig) withDefaults() ViewConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Debounce < 0 {
		c.Debounce = 0
	}
	if c.ChartSize <= 0 {
		c.ChartSize = feedback.DefaultChartSize
	}
	return c
}

type viewState int

const (
	stateIdle viewState = iota
	stateSubscribed
	stateTornDown
)

// LiveView keeps one viewer's ranked feedback list current.
//
// While mounted, a single goroutine owns the change subscriptions and the polling
// ticker. Every notification, tick or identity change re-runs fetch, rank and chart
// and replaces the snapshot wholesale. Notifications arriving within the debounce
// window collapse into one trailing refresh.
type LiveView struct {
	fetcher ItemFetcher
	feed    domain.ChangeFeed
	clock   clockwork.Clock
	cfg     ViewConfig
	metrics *metrics.ViewMetrics

	mu      sync.Mutex
	state   viewState
	voter   domain.Identity
	current domain.Snapshot
	version uint64
	cancel  context.CancelFunc

	voterCh chan struct{}
	updates chan domain.Snapshot
	done    chan struct{}
}

// NewLiveView creates an idle view for voter. m may be nil.
func NewLiveView(fetcher ItemFetcher, feed domain.ChangeFeed, voter domain.Identity, clock clockwork.Clock, cfg ViewConfig, m *metrics.ViewMetrics) *LiveView {
	return &LiveView{
		fetcher: fetcher,
		feed:    feed,
		clock:   clock,
		cfg:     cfg.withDefaults(),
		metrics: m,
		voter:   voter,
		voterCh: make(chan struct{}, 1),
		updates: make(chan domain.Snapshot, 1),
		done:    make(chan struct{}),
	}
}

// Mount subscribes to both collections, starts the polling ticker and runs the
// initial refresh in the background. If a subscription cannot be opened, every
// subscription already opened is closed and the view is torn down.
// Cancelling ctx tears the view down as Unmount does.
func (v *LiveView) Mount(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.state {
	case stateSubscribed:
		return domain.ErrAlreadyMounted
	case stateTornDown:
		return domain.ErrTornDown
	}

	viewCtx, cancel := context.WithCancel(ctx)
	items, votes, err := v.subscribe(viewCtx)
	if err != nil {
		cancel()
		v.finishLocked()
		return fmt.Errorf("failed to mount view: %w", err)
	}

	ticker := v.clock.NewTicker(v.cfg.PollInterval)
	v.state = stateSubscribed
	v.cancel = cancel
	if v.metrics != nil {
		v.metrics.MountedViews.Inc()
	}

	slog.DebugContext(ctx, "View mounted", "voter", v.voter, "poll_interval", v.cfg.PollInterval, "debounce", v.cfg.Debounce)
	go v.run(viewCtx, cancel, items, votes, ticker)
	return nil
}

func (v *LiveView) subscribe(ctx context.Context) (items, votes domain.Subscription, err error) {
	items, err = v.feed.Subscribe(ctx, domain.CollectionFeedback)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", domain.CollectionFeedback, err)
	}
	votes, err = v.feed.Subscribe(ctx, domain.CollectionVotes)
	if err != nil {
		closeSubscription(ctx, domain.CollectionFeedback, items)
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", domain.CollectionVotes, err)
	}
	return items, votes, nil
}

// Unmount tears the view down and blocks until its goroutine has exited.
// In-flight fetches are cancelled and their results discarded; no refresh runs
// afterwards. Updates is closed once Unmount returns. Safe to call repeatedly.
func (v *LiveView) Unmount() {
	v.mu.Lock()
	switch v.state {
	case stateIdle:
		v.finishLocked()
	case stateSubscribed:
		v.state = stateTornDown
		v.cancel()
	}
	v.mu.Unlock()

	<-v.done
}

// SetVoter switches the viewer identity, refreshing immediately when mounted.
func (v *LiveView) SetVoter(voter domain.Identity) {
	v.mu.Lock()
	changed := v.voter != voter
	v.voter = voter
	mounted := v.state == stateSubscribed
	v.mu.Unlock()

	if !changed || !mounted {
		return
	}
	select {
	case v.voterCh <- struct{}{}:
	default:
	}
}

// Voter returns the identity the view currently renders for.
func (v *LiveView) Voter() domain.Identity {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.voter
}

// Current returns the latest snapshot. Its Version is zero before the first refresh.
func (v *LiveView) Current() domain.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Updates delivers snapshots as they are produced. A slow reader only sees the newest.
// The channel is closed on teardown.
func (v *LiveView) Updates() <-chan domain.Snapshot {
	return v.updates
}

// Done is closed once the view is torn down.
func (v *LiveView) Done() <-chan struct{} {
	return v.done
}

func (v *LiveView) run(ctx context.Context, cancel context.CancelFunc, items, votes domain.Subscription, ticker clockwork.Ticker) {
	defer v.teardown(ctx, cancel, items, votes, ticker)

	itemEvents, voteEvents := items.Events(), votes.Events()

	var pending clockwork.Timer
	var pendingCh <-chan time.Time

	notify := func(collection domain.Collection) {
		if v.metrics != nil {
			v.metrics.Notifications.WithLabelValues(string(collection)).Inc()
		}
		if v.cfg.Debounce == 0 {
			v.refresh(ctx, metrics.TriggerNotification)
			return
		}
		if pending == nil {
			pending = v.clock.NewTimer(v.cfg.Debounce)
			pendingCh = pending.Chan()
		}
	}

	v.refresh(ctx, metrics.TriggerMount)

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return

		case _, ok := <-itemEvents:
			if !ok {
				itemEvents = nil
				slog.WarnContext(ctx, "Change subscription ended, relying on polling", "collection", domain.CollectionFeedback)
				continue
			}
			notify(domain.CollectionFeedback)

		case _, ok := <-voteEvents:
			if !ok {
				voteEvents = nil
				slog.WarnContext(ctx, "Change subscription ended, relying on polling", "collection", domain.CollectionVotes)
				continue
			}
			notify(domain.CollectionVotes)

		case <-pendingCh:
			pending, pendingCh = nil, nil
			v.refresh(ctx, metrics.TriggerNotification)

		case <-ticker.Chan():
			if pending != nil {
				// The pending trailing refresh covers this tick.
				continue
			}
			v.refresh(ctx, metrics.TriggerPoll)

		case <-v.voterCh:
			v.refresh(ctx, metrics.TriggerVoterChange)
		}
	}
}

func (v *LiveView) refresh(ctx context.Context, trigger string) {
	v.mu.Lock()
	voter := v.voter
	v.mu.Unlock()

	passCtx := correlation.WithID(ctx, correlation.NewID())
	start := v.clock.Now()

	items, err := v.fetcher.Fetch(passCtx, voter)
	if ctx.Err() != nil {
		return
	}

	snap := domain.Snapshot{Voter: voter, FetchedAt: v.clock.Now()}
	if err != nil {
		slog.WarnContext(passCtx, "View refresh failed", "trigger", trigger, "voter", voter, "error", err)
		snap.Err = err
		snap.Items = []domain.AnnotatedItem{}
		snap.Chart = []domain.ChartBar{}
	} else {
		snap.Items = feedback.Rank(items)
		snap.Chart = feedback.Chart(snap.Items, v.cfg.ChartSize)
	}

	if v.metrics != nil {
		v.metrics.Refreshes.WithLabelValues(trigger).Inc()
		v.metrics.RefreshDuration.Observe(v.clock.Since(start).Seconds())
		if err != nil {
			v.metrics.FetchFailures.Inc()
		}
	}

	v.publish(snap)
}

func (v *LiveView) publish(snap domain.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != stateSubscribed {
		return
	}

	v.version++
	snap.Version = v.version
	v.current = snap

	// This goroutine is the only sender, so after draining a stale snapshot the send cannot block.
	select {
	case v.updates <- snap:
	default:
		select {
		case <-v.updates:
		default:
		}
		v.updates <- snap
	}
}

func (v *LiveView) teardown(ctx context.Context, cancel context.CancelFunc, items, votes domain.Subscription, ticker clockwork.Ticker) {
	cancel()
	ticker.Stop()
	closeSubscription(ctx, domain.CollectionFeedback, items)
	closeSubscription(ctx, domain.CollectionVotes, votes)

	if v.metrics != nil {
		v.metrics.MountedViews.Dec()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.finishLocked()
}

// finishLocked marks the view torn down and closes its output channels. Caller holds v.mu.
func (v *LiveView) finishLocked() {
	v.state = stateTornDown
	close(v.updates)
	close(v.done)
}

func closeSubscription(ctx context.Context, collection domain.Collection, sub domain.Subscription) {
	if err := sub.Close(); err != nil {
		slog.WarnContext(ctx, "Failed to close change subscription", "collection", collection, "error", err)
	}
}
