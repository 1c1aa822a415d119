package dag

import (
	"reflect"
	"testing"

	"github.com/trustnote/trustnote-go/src/common"
)

func composerDAG(t *testing.T, store Store) {
	w := makeWitnesses("w")
	d := newTestDAG(t, store)
	d.genesis("G", w)
	d.mc("A", "G", "G", 1, true)
	d.mc("B", "A", "G", 2, true)
	d.free("F1", "B", "G")
	d.free("F2", "B", "G")
	d.freeDefining("X1", "B", makeWitnesses("x"))
}

func testComposer(t *testing.T, store Store) {
	composerDAG(t, store)

	composer := NewComposer(store, nil, common.NewTestEntry(t, common.TestLogLevel))

	comp, err := composer.PickParentUnitsAndLastBall(makeWitnesses("w"))
	if err != nil {
		t.Fatal(err)
	}

	expected := &Composition{
		ParentUnits:    []string{"F1", "F2"},
		LastStableBall: "ball_B",
		LastStableUnit: "B",
		LastStableMCI:  2,
	}

	if !reflect.DeepEqual(expected, comp) {
		t.Fatalf("composition should be %#v, not %#v", expected, comp)
	}
}

func TestComposerInmem(t *testing.T) {
	testComposer(t, NewInmemStore())
}

func TestComposerErrors(t *testing.T) {
	store := NewInmemStore()
	composerDAG(t, store)

	composer := NewComposer(store, nil, common.NewTestEntry(t, common.TestLogLevel))

	comp, err := composer.PickParentUnitsAndLastBall(makeWitnesses("w")[:5])
	if !IsComposeError(err, InvalidWitnessList) || comp != nil {
		t.Fatalf("expected InvalidWitnessList and no composition, got %v, %v", comp, err)
	}

	comp, err = composer.PickParentUnitsAndLastBall(makeWitnesses("y"))
	if !IsComposeError(err, NoCompatibleParents) || comp != nil {
		t.Fatalf("expected NoCompatibleParents and no composition, got %v, %v", comp, err)
	}
}

func TestComposerNoStableBall(t *testing.T) {
	w := makeWitnesses("w")
	store := NewInmemStore()
	d := newTestDAG(t, store)

	g := d.genesis("G", w)
	g.IsStable = false
	g.Ball = ""
	d.set(g)
	d.free("F", "G", "G")

	composer := NewComposer(store, nil, common.NewTestEntry(t, common.TestLogLevel))

	_, err := composer.PickParentUnitsAndLastBall(w)
	if !IsComposeError(err, NoStableBall) {
		t.Fatalf("expected NoStableBall, got %v", err)
	}
}
