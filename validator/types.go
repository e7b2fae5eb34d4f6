// Package validator answers the one question the DAG layer needs from
// validator state: is a given validator id bonded (stake > 0) at a
// particular block's pre-state (spec §4.E.2 "bonded-sender").
//
// Full validator lifecycle (registration, withdrawal, slashing) lives in
// the execution engine; this package only reads the stake view it
// publishes.
package validator

import "errors"

// ErrNotBonded is returned when a validator id has zero stake at the
// queried state.
var ErrNotBonded = errors.New("validator: not bonded")

// StateView is the narrow read-only slice of execution-engine state the
// DAG layer's bonded-sender check needs. The execution engine is an
// external collaborator (spec §6); this interface is the DAG layer's
// contract with it.
type StateView interface {
	// Stake returns the locked stake for id, or 0/false if never
	// registered.
	Stake(id []byte) (stake uint64, found bool)
}
