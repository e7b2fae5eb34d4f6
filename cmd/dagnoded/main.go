// Command dagnoded wires DAG storage, the validation pipeline, and the
// initial synchronizer behind a small set of CLI flags. Peer transport and
// the execution engine are external collaborators this layer only
// consumes interfaces of (see validator.StateView, validation.BlockStorage,
// validation.ExecutionEngine, sync.Peer) — this binary is a thin host, not
// a full node.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/dag"
	"github.com/tos-network/daglayer/dag/sync"
	"github.com/tos-network/daglayer/dag/validation"
	"github.com/tos-network/daglayer/log"
	"github.com/tos-network/daglayer/params"
)

var (
	chainNameFlag = &cli.StringFlag{
		Name:  "chain-name",
		Usage: "chain name messages must carry to be accepted",
		Value: "tos-mainnet",
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "directory for the DAG checkpoint store (empty uses an in-memory store)",
	}
	minSuccessfulFlag = &cli.IntFlag{
		Name:  "min-successful",
		Usage: "number of peers that must report fully-synced before initial sync completes",
		Value: params.DefaultMinSuccessful,
	}
	rankStepFlag = &cli.Uint64Flag{
		Name:  "rank-step",
		Usage: "width of the rank window requested from a peer per sync round",
		Value: params.DefaultSyncStep,
	}
	memoizeNodesFlag = &cli.BoolFlag{
		Name:  "memoize-nodes",
		Usage: "keep the initial peer selection fixed across sync rounds instead of re-selecting",
	}
	skipFailedNodesFlag = &cli.BoolFlag{
		Name:  "skip-failed-nodes",
		Usage: "exclude a peer that errors mid-sync from later rounds instead of retrying it",
	}
)

func main() {
	app := &cli.App{
		Name:  "dagnoded",
		Usage: "block DAG storage, validation, and initial-sync daemon",
		Flags: []cli.Flag{
			chainNameFlag,
			dataDirFlag,
			minSuccessfulFlag,
			rankStepFlag,
			memoizeNodesFlag,
			skipFailedNodesFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	logger := log.New("component", "dagnoded")

	cfg := &params.ChainConfig{
		ChainName: ctx.String(chainNameFlag.Name),
		Versions:  []params.VersionAtRank{{ActivationRank: 0, Version: "v1"}},
	}

	storage, err := dag.NewStorage(ctx.String(dataDirFlag.Name))
	if err != nil {
		return fmt.Errorf("dagnoded: opening storage: %w", err)
	}

	pipeline := validation.NewPipeline(cfg, storage, nil, nil, nil)

	syncCfg := sync.Config{
		Step:                        ctx.Uint64(rankStepFlag.Name),
		MinSuccessful:               ctx.Int(minSuccessfulFlag.Name),
		MemoizeNodes:                ctx.Bool(memoizeNodesFlag.Name),
		SkipFailedNodesInNextRounds: ctx.Bool(skipFailedNodesFlag.Name),
	}

	peers := noPeers{}
	scheduler := &ingestScheduler{pipeline: pipeline, storage: storage, logger: logger}
	synchronizer := sync.New(peers, scheduler, syncCfg)

	logger.Info("starting initial sync", "chainName", cfg.ChainName, "minSuccessful", syncCfg.MinSuccessful, "step", syncCfg.Step)
	if err := synchronizer.Sync(ctx.Context); err != nil {
		logger.Warn("initial sync did not complete", "err", err)
	}
	return nil
}

// noPeers is the peer source used when no transport is wired in: node
// discovery (spec §6 "recentlyAlivePeers") is this binary's responsibility
// to provide, not the DAG layer's.
type noPeers struct{}

func (noPeers) RecentlyAlivePeers() []sync.Peer { return nil }

// ingestScheduler is the Scheduler the synchronizer drives: it validates
// each summary's shape and signature, computes the rank/jRank pair storage
// would assign it, and inserts the resulting message. Full-block validation
// (body download, deploy checks, state execution) happens out of band once
// a transport layer fetches the body; this scheduler only carries a summary
// as far as the DAG layer itself can take it (spec §4.F).
type ingestScheduler struct {
	pipeline *validation.Pipeline
	storage  *dag.Storage
	logger   log.Logger
}

func (s *ingestScheduler) ScheduleDownload(summary *dag.BlockSummary) error {
	if err := s.pipeline.ValidateSummary(summary); err != nil {
		s.logger.Warn("rejected summary during sync", "hash", summary.Hash, "err", err)
		return nil
	}

	deps := append(append([]common.Hash(nil), summary.Parents...), summary.Justifications...)
	rank, err := s.storage.PendingRank(deps)
	if err != nil {
		if errors.Is(err, dag.ErrMissingDependency) {
			return nil // a later round carries the missing dependency
		}
		return err
	}
	jRank, err := s.storage.PendingRank(summary.Justifications)
	if err != nil {
		if errors.Is(err, dag.ErrMissingDependency) {
			return nil
		}
		return err
	}

	msg, err := dag.FromBlockSummary(summary, rank, jRank)
	if err != nil {
		s.logger.Warn("rejected malformed summary shape during sync", "hash", summary.Hash, "err", err)
		return nil
	}

	if err := s.storage.Insert(msg); err != nil {
		if errors.Is(err, dag.ErrMissingDependency) {
			return nil
		}
		return fmt.Errorf("dagnoded: inserting synced message %s: %w", summary.Hash, err)
	}
	s.logger.Debug("inserted synced message", "hash", summary.Hash, "rank", rank)
	return nil
}
