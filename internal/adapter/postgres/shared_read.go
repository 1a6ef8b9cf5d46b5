package postgres

import (
	"context"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/domain"
	"golang.org/x/sync/singleflight"
)

// listTimeout bounds a shared aggregate read. The query runs detached from the
// first caller's context so one caller cancelling does not fail the others.
const listTimeout = 10 * time.Second

// sharedList shares an aggregate read among concurrent callers, but a caller
// only joins a read that starts after it asked. A refresh woken by a commit
// therefore never receives rows from a statement older than that commit.
//
// Each read bumps the epoch before it queries. Callers key their flight on
// the epoch they observed, so late arrivals open the next flight instead of
// joining the running one.
type sharedList struct {
	load  func(ctx context.Context) ([]domain.ItemWithVotes, error)
	epoch atomic.Uint64
	group singleflight.Group
}

func (s *sharedList) Do(ctx context.Context) ([]domain.ItemWithVotes, error) {
	key := strconv.FormatUint(s.epoch.Load(), 10)
	ch := s.group.DoChan(key, func() (any, error) {
		s.epoch.Add(1)
		queryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()
		return s.load(queryCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]domain.ItemWithVotes)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
