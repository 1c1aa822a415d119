package dag

import (
	cm "github.com/trustnote/trustnote-go/src/common"
)

// LastStableBall identifies a stable main chain unit and its ball.
type LastStableBall struct {
	Ball           string
	Unit           string
	MainChainIndex int
}

func lastStableBallOf(u *Unit) *LastStableBall {
	return &LastStableBall{
		Ball:           u.Ball,
		Unit:           u.Unit,
		MainChainIndex: u.MainChainIndex,
	}
}

// FindLastStableMcBall returns the stable, good main chain unit with the
// highest main chain index whose witness list is compatible with witnesses.
func FindLastStableMcBall(snap Snapshot, witnesses []string) (*LastStableBall, error) {
	var res *LastStableBall

	err := snap.MainChainIndexDesc(func(u *Unit) (bool, error) {
		if !u.HasMainChainIndex() {
			return false, nil
		}
		if !u.IsOnMainChain || !u.IsStable || !u.IsGood() || u.Ball == "" {
			return true, nil
		}

		ok, err := isCompatible(snap, u, witnesses)
		if err != nil {
			return false, err
		}
		if ok {
			res = lastStableBallOf(u)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if res == nil {
		return nil, newComposeError(NoStableBall, "no compatible stable main chain unit")
	}

	return res, nil
}

// AdjustLastStableMcBallAndParents moves the anchor and the parents until
// the anchor is stable in view of the parents. While the anchor is not
// stable, several parents are first collapsed to the single deep parent, then
// the anchor steps back along its best parents. Each step either shrinks the
// parents to one unit, which happens at most once, or moves the anchor to a
// strict ancestor, so the loop ends at the latest when the genesis unit is
// reached.
func AdjustLastStableMcBallAndParents(snap Snapshot,
	mc MainChain,
	anchor string,
	parents []string,
	witnesses []string) (*LastStableBall, []string, error) {

	visited := make(map[string]bool)

	for {
		stable, err := mc.IsStableInLaterUnits(snap, anchor, parents)
		if err != nil {
			return nil, nil, err
		}

		if stable {
			u, err := snap.GetUnit(anchor)
			if err != nil {
				return nil, nil, err
			}
			return lastStableBallOf(u), parents, nil
		}

		if len(parents) > 1 {
			if parents, err = PickDeepParentUnits(snap, witnesses); err != nil {
				return nil, nil, err
			}
			continue
		}

		visited[anchor] = true

		u, err := snap.GetUnit(anchor)
		if err != nil {
			if cm.IsStore(err, cm.KeyNotFound) {
				return nil, nil, newComposeError(NoStableBall, "unknown anchor %s", anchor)
			}
			return nil, nil, err
		}
		if u.BestParentUnit == "" {
			return nil, nil, newComposeError(NoStableBall, "no best parent of %s", anchor)
		}
		if visited[u.BestParentUnit] {
			return nil, nil, newComposeError(NoStableBall, "best parent cycle at %s", u.BestParentUnit)
		}

		anchor = u.BestParentUnit
	}
}
