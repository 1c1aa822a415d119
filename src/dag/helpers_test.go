package dag

import (
	"fmt"
	"testing"
)

func makeWitnesses(prefix string) []string {
	res := make([]string, CountWitnesses)
	for i := range res {
		res[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return res
}

// testDAG builds units in a Store for tests.
type testDAG struct {
	t     testing.TB
	store Store
}

func newTestDAG(t testing.TB, store Store) *testDAG {
	return &testDAG{t: t, store: store}
}

// genesis adds a stable main chain unit at index 0 that defines witnesses.
func (d *testDAG) genesis(id string, witnesses []string) *Unit {
	u := NewUnit(id)
	u.Witnesses = witnesses
	u.MainChainIndex = 0
	u.IsFree = false
	u.IsStable = true
	u.IsOnMainChain = true
	u.Ball = "ball_" + id
	return d.set(u)
}

// mc adds a main chain unit on top of parent, using wlu's witness list.
func (d *testDAG) mc(id, parent, wlu string, mci int, stable bool) *Unit {
	u := NewUnit(id, parent)
	u.WitnessListUnit = wlu
	u.BestParentUnit = parent
	u.MainChainIndex = mci
	u.Level = mci
	u.IsFree = false
	u.IsStable = stable
	u.IsOnMainChain = true
	if stable {
		u.Ball = "ball_" + id
	}
	return d.set(u)
}

// free adds a free unit without main chain index.
func (d *testDAG) free(id, parent, wlu string) *Unit {
	u := NewUnit(id, parent)
	u.WitnessListUnit = wlu
	u.BestParentUnit = parent
	return d.set(u)
}

// freeDefining adds a free unit that defines its own witness list.
func (d *testDAG) freeDefining(id, parent string, witnesses []string) *Unit {
	u := NewUnit(id, parent)
	u.Witnesses = witnesses
	u.BestParentUnit = parent
	return d.set(u)
}

func (d *testDAG) set(u *Unit) *Unit {
	if err := d.store.SetUnit(u); err != nil {
		d.t.Fatalf("SetUnit(%s): %v", u.Unit, err)
	}
	return u
}

func (d *testDAG) view(fn func(Snapshot) error) {
	if err := d.store.View(fn); err != nil {
		d.t.Fatal(err)
	}
}
