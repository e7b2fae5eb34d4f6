package validation

import (
	"github.com/tos-network/daglayer/common"
	"github.com/tos-network/daglayer/crypto"
	"github.com/tos-network/daglayer/dag"
	"github.com/tos-network/daglayer/params"
)

func checkDeployHash(d *dag.Deploy) error {
	if HashDeployHeader(d) != d.DeployHash {
		return &dag.InvalidBlock{Reason: dag.InvalidDeployHash, Hash: d.DeployHash}
	}
	return nil
}

func checkDeploySignatures(d *dag.Deploy) error {
	if len(d.Approvals) == 0 {
		return &dag.InvalidBlock{Reason: dag.InvalidDeploySignature, Hash: d.DeployHash}
	}
	for _, a := range d.Approvals {
		ok, err := crypto.Verify(crypto.Algorithm(a.Algorithm), d.DeployHash.Bytes(), a.Signature, a.SignerPubKey)
		if err != nil || !ok {
			return &dag.InvalidBlock{Reason: dag.InvalidDeploySignature, Hash: d.DeployHash, Err: err}
		}
	}
	return nil
}

func checkDeployHeader(d *dag.Deploy, chainName string, blockTimestamp uint64, pCone map[common.Hash]bool) error {
	ttl := d.TTL
	if ttl < uint64(params.MinDeployTTL.Milliseconds()) || ttl > uint64(params.MaxDeployTTL.Milliseconds()) {
		return &dag.InvalidBlock{Reason: dag.InvalidDeployHeader, Hash: d.DeployHash}
	}
	if len(d.Dependencies) > params.MaxDeployDependencies {
		return &dag.InvalidBlock{Reason: dag.InvalidDeployHeader, Hash: d.DeployHash}
	}
	for _, dep := range d.Dependencies {
		if len(dep) != params.DependencyHashLength {
			return &dag.InvalidBlock{Reason: dag.InvalidDeployHeader, Hash: d.DeployHash}
		}
	}
	if d.ChainName != "" && d.ChainName != chainName {
		return &dag.InvalidBlock{Reason: dag.InvalidDeployHeader, Hash: d.DeployHash}
	}
	if blockTimestamp < d.Timestamp {
		return &dag.InvalidBlock{Reason: dag.DeployFromFuture, Hash: d.DeployHash}
	}
	if blockTimestamp > d.Timestamp+ttl {
		return &dag.InvalidBlock{Reason: dag.DeployExpired, Hash: d.DeployHash}
	}
	for _, dep := range d.Dependencies {
		if !pCone[dep] {
			return &dag.InvalidBlock{Reason: dag.DeployDependencyNotMet, Hash: d.DeployHash}
		}
	}
	return nil
}

// checkDeployUniqueness enforces no duplicate deploy hash within the block
// and none already present in the block's p-past-cone (spec §4.E.2
// "Deploy uniqueness").
func checkDeployUniqueness(blockHash common.Hash, deploys []dag.Deploy, blockStore BlockStorage, pCone map[common.Hash]bool) error {
	seen := make(map[common.Hash]bool, len(deploys))
	for _, d := range deploys {
		if seen[d.DeployHash] {
			return &dag.InvalidBlock{Reason: dag.InvalidRepeatDeploy, Hash: blockHash}
		}
		seen[d.DeployHash] = true
		if blockStore == nil {
			continue
		}
		for _, carrier := range blockStore.FindBlockHashesWithDeployHash(d.DeployHash) {
			if carrier == blockHash {
				continue
			}
			if pCone[carrier] {
				return &dag.InvalidBlock{Reason: dag.InvalidRepeatDeploy, Hash: blockHash}
			}
		}
	}
	return nil
}
