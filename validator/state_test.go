package validator

import "testing"

type fakeStateView map[string]uint64

func (f fakeStateView) Stake(id []byte) (uint64, bool) {
	s, ok := f[string(id)]
	return s, ok
}

func TestBondedSender(t *testing.T) {
	view := fakeStateView{"alice": 10, "bob": 0}

	if ok, err := BondedSender(view, []byte("alice")); !ok || err != nil {
		t.Fatalf("expected alice bonded, got ok=%v err=%v", ok, err)
	}
	if ok, err := BondedSender(view, []byte("bob")); ok || err != ErrNotBonded {
		t.Fatalf("expected bob not bonded, got ok=%v err=%v", ok, err)
	}
	if ok, err := BondedSender(view, []byte("carol")); ok || err != ErrNotBonded {
		t.Fatalf("expected unknown validator not bonded, got ok=%v err=%v", ok, err)
	}
}
