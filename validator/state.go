package validator

// BondedSender reports whether id has stake > 0 in the given state view
// (spec §4.E.2 "bonded-sender unless genesis"). The execution engine
// publishes this view per block pre-state; the DAG layer treats it as
// read-only.
func BondedSender(view StateView, id []byte) (bool, error) {
	stake, found := view.Stake(id)
	if !found || stake == 0 {
		return false, ErrNotBonded
	}
	return true, nil
}
