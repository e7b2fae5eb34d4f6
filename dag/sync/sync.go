// Package sync implements the initial DAG synchronizer (spec §4.F): it
// pulls header-only block summaries from peers in rank windows, fanned out
// in parallel, until enough peers report themselves fully synced.
package sync

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tos-network/daglayer/dag"
	"github.com/tos-network/daglayer/log"
	"github.com/tos-network/daglayer/params"
)

var syncLog = log.New("component", "dag-sync")

var (
	errNoCandidates    = errors.New("sync: no candidate peers remain")
	errRankOutOfWindow = errors.New("sync: summary rank outside requested window")
	errDuplicateHash   = errors.New("sync: duplicate summary hash in window")
)

// Peer is a single remote node a summary window can be requested from.
type Peer interface {
	ID() string
	// StreamSummaries requests block summaries with startRank <= rank <=
	// endRank. The channel closes when the stream ends; a non-nil error
	// reported on errc terminates the stream early.
	StreamSummaries(ctx context.Context, startRank, endRank uint64) (<-chan *dag.BlockSummary, <-chan error)
}

// PeerSource is the node-discovery collaborator (spec §6
// "recentlyAlivePeers").
type PeerSource interface {
	RecentlyAlivePeers() []Peer
}

// Scheduler accepts a validated-shape summary for downstream download of
// its full body. Scheduling is fire-and-forget from the synchronizer's
// point of view; download/validation happens out of band.
type Scheduler interface {
	ScheduleDownload(summary *dag.BlockSummary) error
}

// Config tunes the initial sync loop (spec §4.F).
type Config struct {
	// RankStartFrom is the first rank requested.
	RankStartFrom uint64
	// Step is the width of a single round's rank window.
	Step uint64
	// MinSuccessful is how many peers must report fully-synced before the
	// synchronizer declares success.
	MinSuccessful int
	// MemoizeNodes keeps the initial peer selection fixed across rounds
	// instead of re-selecting from currently alive peers each round.
	MemoizeNodes bool
	// SkipFailedNodesInNextRounds excludes a peer that errored in a round
	// from all subsequent rounds instead of retrying it.
	SkipFailedNodesInNextRounds bool
}

// DefaultConfig returns the package's baseline tuning (spec defaults).
func DefaultConfig() Config {
	return Config{
		Step:          params.DefaultSyncStep,
		MinSuccessful: params.DefaultMinSuccessful,
	}
}

// Synchronizer runs the initial sync protocol against a PeerSource,
// scheduling discovered summaries for download via a Scheduler.
type Synchronizer struct {
	Peers     PeerSource
	Scheduler Scheduler
	Config    Config
}

// New constructs a Synchronizer. A zero Config.Step or MinSuccessful is
// replaced with DefaultConfig's value.
func New(peers PeerSource, scheduler Scheduler, cfg Config) *Synchronizer {
	d := DefaultConfig()
	if cfg.Step == 0 {
		cfg.Step = d.Step
	}
	if cfg.MinSuccessful == 0 {
		cfg.MinSuccessful = d.MinSuccessful
	}
	return &Synchronizer{Peers: peers, Scheduler: scheduler, Config: cfg}
}

type peerOutcome struct {
	peer        Peer
	fullySynced bool
	maxRank     uint64
	err         error
}

// Sync runs rounds of peer fan-out until minSuccessful peers report
// fully-synced, the candidate list is exhausted, or ctx is cancelled.
func (s *Synchronizer) Sync(ctx context.Context) error {
	candidates := s.Peers.RecentlyAlivePeers()
	excluded := make(map[string]bool)
	r := s.Config.RankStartFrom

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(candidates) == 0 {
			return &dag.SynchronizationError{Peer: "", Err: errNoCandidates}
		}

		roundID := uuid.New().String()
		end := r + s.Config.Step
		syncLog.Info("sync round start", "round", roundID, "startRank", r, "endRank", end, "peers", len(candidates))

		outcomes := s.runRound(ctx, roundID, candidates, r, end)

		fullySynced := 0
		maxObserved := r
		var alive []Peer
		for _, o := range outcomes {
			if o.err != nil {
				syncLog.Warn("sync peer failed", "round", roundID, "peer", o.peer.ID(), "err", o.err)
				if s.Config.SkipFailedNodesInNextRounds {
					excluded[o.peer.ID()] = true
				} else {
					alive = append(alive, o.peer)
				}
				continue
			}
			if o.fullySynced {
				fullySynced++
			}
			if o.maxRank > maxObserved {
				maxObserved = o.maxRank
			}
			alive = append(alive, o.peer)
		}

		if fullySynced >= s.Config.MinSuccessful {
			syncLog.Info("sync complete", "round", roundID, "fullySynced", fullySynced)
			return nil
		}

		if s.Config.MemoizeNodes {
			candidates = filterExcluded(candidates, excluded)
		} else {
			candidates = filterExcluded(s.Peers.RecentlyAlivePeers(), excluded)
		}
		if len(candidates) == 0 {
			return &dag.SynchronizationError{Peer: "", Err: errNoCandidates}
		}
		if maxObserved <= r {
			// No progress was made this round; advance by step to avoid
			// spinning on a window no peer could fill.
			r += s.Config.Step
		} else {
			r = maxObserved
		}
	}
}

func (s *Synchronizer) runRound(ctx context.Context, roundID string, peers []Peer, start, end uint64) []peerOutcome {
	results := make([]peerOutcome, len(peers))
	g, gctx := errgroup.WithContext(ctx)
	for i, peer := range peers {
		i, peer := i, peer
		g.Go(func() error {
			results[i] = s.syncOnePeer(gctx, roundID, peer, start, end)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Synchronizer) syncOnePeer(ctx context.Context, roundID string, peer Peer, start, end uint64) peerOutcome {
	summaries, errc := peer.StreamSummaries(ctx, start, end)
	seen := make(map[string]bool)
	var maxRank uint64
	fullySynced := true

	for summaries != nil || errc != nil {
		select {
		case <-ctx.Done():
			return peerOutcome{peer: peer, err: ctx.Err()}
		case sum, ok := <-summaries:
			if !ok {
				summaries = nil
				continue
			}
			if sum.Rank < start || sum.Rank > end {
				return peerOutcome{peer: peer, err: &dag.SynchronizationError{Peer: peer.ID(), Err: errRankOutOfWindow}}
			}
			key := sum.Hash.Hex()
			if seen[key] {
				return peerOutcome{peer: peer, err: &dag.SynchronizationError{Peer: peer.ID(), Err: errDuplicateHash}}
			}
			seen[key] = true
			if sum.Rank > maxRank {
				maxRank = sum.Rank
			}
			if sum.Rank >= end {
				fullySynced = false
			}
			if s.Scheduler != nil {
				if err := s.Scheduler.ScheduleDownload(sum); err != nil {
					return peerOutcome{peer: peer, err: &dag.SynchronizationError{Peer: peer.ID(), Err: err}}
				}
			}
			syncLog.Debug("sync summary scheduled", "round", roundID, "peer", peer.ID(), "hash", sum.Hash, "rank", sum.Rank)
		case err, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			if err != nil {
				return peerOutcome{peer: peer, err: &dag.SynchronizationError{Peer: peer.ID(), Err: err}}
			}
		}
	}
	return peerOutcome{peer: peer, fullySynced: fullySynced, maxRank: maxRank}
}

func filterExcluded(peers []Peer, excluded map[string]bool) []Peer {
	if len(excluded) == 0 {
		return peers
	}
	out := make([]Peer, 0, len(peers))
	for _, p := range peers {
		if !excluded[p.ID()] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
