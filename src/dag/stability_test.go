package dag

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

// mainChainStub answers stability questions from a fixed set of anchors.
type mainChainStub struct {
	stable map[string]bool
	calls  int
	DefaultMainChain
}

func (m *mainChainStub) IsStableInLaterUnits(snap Snapshot, anchor string, tips []string) (bool, error) {
	m.calls++
	return m.stable[anchor], nil
}

// chain builds G <- A <- B <- C on the main chain, all stable, with free
// units F1 on C and F2 on A.
func chain(t *testing.T) *testDAG {
	w := makeWitnesses("w")
	d := newTestDAG(t, NewInmemStore())
	d.genesis("G", w)
	d.mc("A", "G", "G", 1, true)
	d.mc("B", "A", "G", 2, true)
	d.mc("C", "B", "G", 3, true)
	d.free("F1", "C", "G")
	d.free("F2", "A", "G")
	return d
}

func TestFindLastStableMcBall(t *testing.T) {
	w := makeWitnesses("w")
	d := newTestDAG(t, NewInmemStore())
	d.genesis("G", w)
	d.mc("A", "G", "G", 1, true)
	d.mc("B", "A", "G", 2, false)

	d.view(func(snap Snapshot) error {
		lsb, err := FindLastStableMcBall(snap, w)
		require.NoError(t, err)
		require.Equal(t, &LastStableBall{Ball: "ball_A", Unit: "A", MainChainIndex: 1}, lsb)

		_, err = FindLastStableMcBall(snap, makeWitnesses("x"))
		require.True(t, IsComposeError(err, NoStableBall))
		return nil
	})
}

func TestAdjustCollapsesParents(t *testing.T) {
	w := makeWitnesses("w")
	d := chain(t)

	d.view(func(snap Snapshot) error {
		// F2 does not include C, so C is not stable in view of both parents.
		lsb, parents, err := AdjustLastStableMcBallAndParents(snap,
			NewDefaultMainChain(), "C", []string{"F1", "F2"}, w)
		require.NoError(t, err)
		require.Equal(t, "C", lsb.Unit)
		require.Equal(t, []string{"C"}, parents)
		return nil
	})
}

func TestAdjustWalksBestParents(t *testing.T) {
	w := makeWitnesses("w")
	d := chain(t)

	mc := &mainChainStub{stable: map[string]bool{"A": true}}

	d.view(func(snap Snapshot) error {
		lsb, parents, err := AdjustLastStableMcBallAndParents(snap, mc, "C", []string{"F1"}, w)
		if err != nil {
			t.Fatal(err)
		}
		expected := &LastStableBall{Ball: "ball_A", Unit: "A", MainChainIndex: 1}
		if !reflect.DeepEqual(expected, lsb) {
			t.Fatalf("anchor should be %#v, not %#v", expected, lsb)
		}
		if !reflect.DeepEqual([]string{"F1"}, parents) {
			t.Fatalf("parents should be untouched, got %v", parents)
		}
		if mc.calls != 3 {
			t.Fatalf("expected 3 stability checks (C, B, A), got %d", mc.calls)
		}
		return nil
	})
}

func TestAdjustTerminates(t *testing.T) {
	w := makeWitnesses("w")
	d := chain(t)

	mc := &mainChainStub{stable: map[string]bool{}}

	d.view(func(snap Snapshot) error {
		_, _, err := AdjustLastStableMcBallAndParents(snap, mc, "C", []string{"F1", "F2"}, w)
		if !IsComposeError(err, NoStableBall) {
			t.Fatalf("expected NoStableBall, got %v", err)
		}
		// C with two parents, C with the deep parent, then B, A, G
		if mc.calls != 5 {
			t.Fatalf("expected 5 stability checks, got %d", mc.calls)
		}
		return nil
	})
}

func TestIsStableInLaterUnits(t *testing.T) {
	d := chain(t)
	mc := NewDefaultMainChain()

	cases := []struct {
		anchor string
		tips   []string
		stable bool
	}{
		{"C", []string{"F1"}, true},
		{"C", []string{"F1", "F2"}, false},
		{"A", []string{"F1", "F2"}, true},
		{"C", []string{"C"}, true},
	}

	d.view(func(snap Snapshot) error {
		for _, c := range cases {
			stable, err := mc.IsStableInLaterUnits(snap, c.anchor, c.tips)
			if err != nil {
				t.Fatal(err)
			}
			if stable != c.stable {
				t.Fatalf("%s in view of %v should be stable=%v", c.anchor, c.tips, c.stable)
			}
		}
		return nil
	})
}

func TestCheckWitnessListMutationsAlongMC(t *testing.T) {
	w := makeWitnesses("w")
	x := makeWitnesses("x")

	d := newTestDAG(t, NewInmemStore())
	d.genesis("G", w)
	d.mc("A", "G", "G", 1, true)
	d.mc("B", "A", "G", 2, true)

	c := d.mc("C", "B", "", 3, false)
	c.Witnesses = x
	d.set(c)

	d.free("F1", "C", "G")
	d.free("F2", "B", "G")

	mc := NewDefaultMainChain()

	d.view(func(snap Snapshot) error {
		fake := &Unit{ParentUnits: []string{"F1"}, WitnessListUnit: "G", MainChainIndex: NoMainChainIndex}
		err := mc.CheckWitnessListMutationsAlongMC(snap, fake, "B", w)
		if !IsComposeError(err, ExcessiveWitnessMutation) {
			t.Fatalf("expected ExcessiveWitnessMutation, got %v", err)
		}

		fake = &Unit{ParentUnits: []string{"F2"}, WitnessListUnit: "G", MainChainIndex: NoMainChainIndex}
		if err := mc.CheckWitnessListMutationsAlongMC(snap, fake, "B", w); err != nil {
			t.Fatalf("F2 builds on B directly, got %v", err)
		}
		return nil
	})
}
