package postgres

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAggregate answers with the net count committed when the read started.
// The first read blocks until release is closed.
type fakeAggregate struct {
	net     atomic.Int64
	calls   atomic.Int64
	started chan struct{}
	release chan struct{}
}

func newFakeAggregate() *fakeAggregate {
	return &fakeAggregate{started: make(chan struct{}), release: make(chan struct{})}
}

func (f *fakeAggregate) load(ctx context.Context) ([]domain.ItemWithVotes, error) {
	net := int(f.net.Load())
	if f.calls.Add(1) == 1 {
		close(f.started)
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []domain.ItemWithVotes{{Item: domain.Item{ID: "a"}, VoteAggregate: domain.VoteAggregate{Net: net}}}, nil
}

func TestSharedList_LateCallerSeesCommittedWrite(t *testing.T) {
	fake := newFakeAggregate()
	list := &sharedList{load: fake.load}

	first := make(chan []domain.ItemWithVotes, 1)
	go func() {
		items, err := list.Do(context.Background())
		assert.NoError(t, err)
		first <- items
	}()
	<-fake.started

	// A vote commits while the first read is still running.
	fake.net.Store(1)

	second, err := list.Do(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, second[0].Net)

	close(fake.release)
	stale := <-first
	require.Len(t, stale, 1)
	assert.Equal(t, 0, stale[0].Net)
	assert.Equal(t, int64(2), fake.calls.Load())
}

func TestSharedList_CallerCancelReturnsPromptly(t *testing.T) {
	fake := newFakeAggregate()
	list := &sharedList{load: fake.load}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := list.Do(ctx)
		done <- err
	}()
	<-fake.started

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(fake.release)
	items, err := list.Do(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
