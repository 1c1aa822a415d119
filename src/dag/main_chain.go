package dag

import (
	"sort"

	cm "github.com/trustnote/trustnote-go/src/common"
)

// MainChain answers the stability questions the composer asks about the main
// chain.
type MainChain interface {
	// IsStableInLaterUnits reports whether anchor remains stable from the
	// point of view of a unit whose parents are tips.
	IsStableInLaterUnits(snap Snapshot, anchor string, tips []string) (bool, error)
	// CheckWitnessListMutationsAlongMC returns ErrExcessiveWitnessMutation if
	// the main chain between anchor and the future unit fake crosses a unit
	// whose witness list is incompatible with witnesses.
	CheckWitnessListMutationsAlongMC(snap Snapshot, fake *Unit, anchor string, witnesses []string) error
}

// DefaultMainChain implements MainChain on the fields the store keeps for
// each unit.
type DefaultMainChain struct{}

// NewDefaultMainChain ...
func NewDefaultMainChain() *DefaultMainChain {
	return &DefaultMainChain{}
}

// IsStableInLaterUnits is true when anchor is stable, good, and included by
// every tip.
func (mc *DefaultMainChain) IsStableInLaterUnits(snap Snapshot, anchor string, tips []string) (bool, error) {
	a, err := snap.GetUnit(anchor)
	if err != nil {
		return false, err
	}
	if !a.IsStable || !a.IsGood() {
		return false, nil
	}

	for _, tip := range tips {
		ok, err := includes(snap, tip, a)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

// includes reports whether anchor is tip or one of its ancestors. Units
// ordered before anchor on the main chain cannot descend from it and are not
// explored.
func includes(snap Snapshot, tip string, anchor *Unit) (bool, error) {
	visited := map[string]bool{tip: true}
	queue := []string{tip}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if id == anchor.Unit {
			return true, nil
		}

		u, err := snap.GetUnit(id)
		if err != nil {
			if cm.IsStore(err, cm.KeyNotFound) {
				continue
			}
			return false, err
		}
		if u.HasMainChainIndex() && anchor.HasMainChainIndex() && u.MainChainIndex < anchor.MainChainIndex {
			continue
		}

		for _, p := range u.ParentUnits {
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
	}

	return false, nil
}

// CheckWitnessListMutationsAlongMC walks the best parent chain of fake down
// to anchor. Every unit on the way that does not share fake's witness list
// unit must be compatible with witnesses.
func (mc *DefaultMainChain) CheckWitnessListMutationsAlongMC(snap Snapshot, fake *Unit, anchor string, witnesses []string) error {
	a, err := snap.GetUnit(anchor)
	if err != nil {
		return err
	}

	best, err := bestParent(snap, fake.ParentUnits, witnesses)
	if err != nil {
		return err
	}
	if best == nil {
		return newComposeError(ExcessiveWitnessMutation, "no compatible best parent")
	}

	for u := best; u.Unit != a.Unit; {
		if u.HasMainChainIndex() && a.HasMainChainIndex() && u.MainChainIndex <= a.MainChainIndex {
			break
		}

		if fake.WitnessListUnit == "" || u.WitnessDefiner() != fake.WitnessListUnit {
			ok, err := isCompatible(snap, u, witnesses)
			if err != nil {
				return err
			}
			if !ok {
				return newComposeError(ExcessiveWitnessMutation, "relative to MC unit %s", u.Unit)
			}
		}

		if u.BestParentUnit == "" {
			break
		}
		if u, err = snap.GetUnit(u.BestParentUnit); err != nil {
			return err
		}
	}

	return nil
}

// bestParent picks, among the compatible parents, the one with the highest
// witnessed level, then the lowest level above it, then the lowest unit id.
// It returns nil if no parent is compatible.
func bestParent(snap Snapshot, parents []string, witnesses []string) (*Unit, error) {
	candidates := []*Unit{}
	for _, p := range parents {
		u, err := snap.GetUnit(p)
		if err != nil {
			return nil, err
		}
		ok, err := isCompatible(snap, u, witnesses)
		if err != nil {
			return nil, err
		}
		if ok {
			candidates = append(candidates, u)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.WitnessedLevel != cj.WitnessedLevel {
			return ci.WitnessedLevel > cj.WitnessedLevel
		}
		di, dj := ci.Level-ci.WitnessedLevel, cj.Level-cj.WitnessedLevel
		if di != dj {
			return di < dj
		}
		return ci.Unit < cj.Unit
	})

	return candidates[0], nil
}
