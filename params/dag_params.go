package params

import "time"

// Protocol-level constants for the block DAG layer (spec §4.E.2, §7).
const (
	// TimestampDrift is how far into the future a block timestamp may sit
	// relative to the validating node's clock.
	TimestampDrift = 15 * time.Second

	// MinDeployTTL and MaxDeployTTL bound a deploy's time-to-live.
	MinDeployTTL = time.Hour
	MaxDeployTTL = 24 * time.Hour

	// MaxDeployDependencies bounds the dependency list of a single deploy.
	MaxDeployDependencies = 10

	// DependencyHashLength is the required length of a deploy dependency hash.
	DependencyHashLength = 32

	// DefaultSyncStep is the default rank-window width the initial
	// synchronizer requests from a peer in one round.
	DefaultSyncStep = 50

	// DefaultMinSuccessful is the default number of peers that must report
	// fully-synced before the initial synchronizer declares success.
	DefaultMinSuccessful = 2

	// PeerStreamTimeout is a per-read timeout value for a peer summary
	// stream. No code applies it: dag/sync reads a peer's stream until it
	// closes, reports an error, or the context is cancelled.
	PeerStreamTimeout = 30 * time.Second
)

// ChainConfig identifies the network a message must belong to and the
// protocol version in force at a given rank.
type ChainConfig struct {
	ChainName string

	// Versions is an ascending-by-rank table: the version at a rank is the
	// entry with the largest ActivationRank <= rank.
	Versions []VersionAtRank
}

// VersionAtRank pins a protocol version to the rank it activates at.
type VersionAtRank struct {
	ActivationRank uint64
	Version        string
}

// VersionAt implements the versionAt(rank) oracle §4.E.1 validates against.
func (c *ChainConfig) VersionAt(rank uint64) string {
	var best string
	for _, v := range c.Versions {
		if v.ActivationRank <= rank {
			best = v.Version
		}
	}
	return best
}
