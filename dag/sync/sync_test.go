package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/dag"
)

var errInjected = errors.New("sync test: injected peer failure")

type fakePeer struct {
	id        string
	summaries []*dag.BlockSummary
	// failAfter, if >0, sends an error after this many summaries instead of
	// completing the stream normally.
	failAfter int
}

func (p *fakePeer) ID() string { return p.id }

// StreamSummaries sends every configured summary unfiltered, including
// ones outside [startRank, endRank] — a real peer might misbehave this
// way, and the synchronizer is what's responsible for rejecting it.
func (p *fakePeer) StreamSummaries(ctx context.Context, startRank, endRank uint64) (<-chan *dag.BlockSummary, <-chan error) {
	out := make(chan *dag.BlockSummary)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		sent := 0
		for _, s := range p.summaries {
			if p.failAfter > 0 && sent == p.failAfter {
				errc <- errInjected
				return
			}
			select {
			case out <- s:
				sent++
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc
}

func summaryAt(rank uint64, seed byte) *dag.BlockSummary {
	var h common.Hash
	h[0] = seed
	return &dag.BlockSummary{Hash: h, Rank: rank}
}

type fakePeerSource struct{ peers []Peer }

func (f *fakePeerSource) RecentlyAlivePeers() []Peer { return f.peers }

type fakeScheduler struct{ scheduled []*dag.BlockSummary }

func (f *fakeScheduler) ScheduleDownload(s *dag.BlockSummary) error {
	f.scheduled = append(f.scheduled, s)
	return nil
}

// S8: two peers return identical well-formed slices rank 0..10,
// minSuccessful=1: sync completes in one round.
func TestSyncCompletesWhenEnoughPeersFullySync(t *testing.T) {
	summaries := []*dag.BlockSummary{summaryAt(0, 1), summaryAt(5, 2), summaryAt(10, 3)}
	peers := []Peer{
		&fakePeer{id: "p1", summaries: summaries},
		&fakePeer{id: "p2", summaries: summaries},
	}
	sched := &fakeScheduler{}
	s := New(&fakePeerSource{peers: peers}, sched, Config{Step: 50, MinSuccessful: 1})

	err := s.Sync(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, sched.scheduled)
}

// S9: a peer whose stream reports a rank above the requested window raises
// a SynchronizationError against that peer; sync still completes using the
// remaining, well-formed peer.
func TestSyncRejectsOutOfWindowRank(t *testing.T) {
	good := []*dag.BlockSummary{summaryAt(0, 1), summaryAt(3, 2)}
	bad := []*dag.BlockSummary{summaryAt(0, 1), summaryAt(999, 3)}
	peers := []Peer{
		&fakePeer{id: "good", summaries: good},
		&fakePeer{id: "bad", summaries: bad},
	}
	sched := &fakeScheduler{}
	s := New(&fakePeerSource{peers: peers}, sched, Config{Step: 50, MinSuccessful: 1, SkipFailedNodesInNextRounds: true})

	err := s.Sync(context.Background())
	require.NoError(t, err)
}

func TestSyncFailsWhenCandidatesExhausted(t *testing.T) {
	peers := []Peer{
		&fakePeer{id: "bad", summaries: []*dag.BlockSummary{summaryAt(999, 1)}},
	}
	s := New(&fakePeerSource{peers: peers}, &fakeScheduler{}, Config{Step: 50, MinSuccessful: 1, SkipFailedNodesInNextRounds: true})

	err := s.Sync(context.Background())
	require.Error(t, err)
	var syncErr *dag.SynchronizationError
	require.ErrorAs(t, err, &syncErr)
}
