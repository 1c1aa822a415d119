package dag

// PickParentUnits returns the free units a new unit with the given witness
// list may build on. Only good, non-archived units carrying the current
// version and alt that are compatible with witnesses are returned, ordered by
// unit id and capped at MaxParentsPerUnit. When no free unit is compatible, it
// falls back to PickDeepParentUnits.
func PickParentUnits(snap Snapshot, witnesses []string) ([]string, error) {
	free, err := snap.FreeUnits()
	if err != nil {
		return nil, err
	}

	res := []string{}
	for _, u := range free {
		if !u.IsGood() || !u.MatchesNetwork() {
			continue
		}

		archived, err := snap.IsArchived(u.Unit)
		if err != nil {
			return nil, err
		}
		if archived {
			continue
		}

		ok, err := isCompatible(snap, u, witnesses)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		res = append(res, u.Unit)
		if len(res) == MaxParentsPerUnit {
			break
		}
	}

	if len(res) == 0 {
		return PickDeepParentUnits(snap, witnesses)
	}

	return res, nil
}

// PickDeepParentUnits returns the single compatible good unit with the highest
// main chain index, ties broken by unit id. It is used when every free unit is
// incompatible, which is what an attacker flooding the tips would cause.
func PickDeepParentUnits(snap Snapshot, witnesses []string) ([]string, error) {
	var res []string

	err := snap.MainChainIndexDesc(func(u *Unit) (bool, error) {
		if !u.IsGood() || !u.MatchesNetwork() {
			return true, nil
		}

		archived, err := snap.IsArchived(u.Unit)
		if err != nil {
			return false, err
		}
		if archived {
			return true, nil
		}

		ok, err := isCompatible(snap, u, witnesses)
		if err != nil {
			return false, err
		}
		if ok {
			res = []string{u.Unit}
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, newComposeError(NoCompatibleParents, "no deep units")
	}

	return res, nil
}
