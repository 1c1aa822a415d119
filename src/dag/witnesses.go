package dag

import (
	"sort"

	cm "github.com/trustnote/trustnote-go/src/common"
)

// ValidateWitnessList checks that witnesses holds exactly CountWitnesses
// distinct non-empty addresses.
func ValidateWitnessList(witnesses []string) error {
	if len(witnesses) != CountWitnesses {
		return newComposeError(InvalidWitnessList, "expected %d witnesses, got %d", CountWitnesses, len(witnesses))
	}
	seen := make(map[string]bool, len(witnesses))
	for _, w := range witnesses {
		if w == "" {
			return newComposeError(InvalidWitnessList, "empty witness address")
		}
		if seen[w] {
			return newComposeError(InvalidWitnessList, "duplicate witness %s", w)
		}
		seen[w] = true
	}
	return nil
}

// CountMatching returns how many addresses of list also appear in witnesses.
func CountMatching(list []string, witnesses []string) int {
	set := make(map[string]bool, len(witnesses))
	for _, w := range witnesses {
		set[w] = true
	}
	count := 0
	for _, a := range list {
		if set[a] {
			count++
		}
	}
	return count
}

// IsCompatibleCount reports whether count matching addresses are enough for
// two witness lists to be compatible.
func IsCompatibleCount(count int) bool {
	return count >= RequiredMatches
}

// SameWitnessList reports whether a and b hold the same addresses.
func SameWitnessList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// countMatchingWitnesses counts the addresses of witnesses that appear in the
// witness rows of u and of the unit u references as its witness list unit. A
// referenced unit that is unknown contributes nothing.
func countMatchingWitnesses(snap Snapshot, u *Unit, witnesses []string) (int, error) {
	count := CountMatching(u.Witnesses, witnesses)

	if u.WitnessListUnit == "" || u.WitnessListUnit == u.Unit {
		return count, nil
	}

	definer, err := snap.GetUnit(u.WitnessListUnit)
	if err != nil {
		if cm.IsStore(err, cm.KeyNotFound) {
			return count, nil
		}
		return 0, err
	}

	return count + CountMatching(definer.Witnesses, witnesses), nil
}

// isCompatible reports whether u's witness list is compatible with witnesses.
func isCompatible(snap Snapshot, u *Unit, witnesses []string) (bool, error) {
	count, err := countMatchingWitnesses(snap, u, witnesses)
	if err != nil {
		return false, err
	}
	return IsCompatibleCount(count), nil
}

// FindWitnessListUnit returns a good stable unit, with main chain index not
// above maxMCI, that defines exactly the given witness list. It returns an
// empty string when there is none.
func FindWitnessListUnit(snap Snapshot, witnesses []string, maxMCI int) (string, error) {
	found := ""
	err := snap.MainChainIndexDesc(func(u *Unit) (bool, error) {
		if !u.HasMainChainIndex() {
			return false, nil
		}
		if u.MainChainIndex > maxMCI {
			return true, nil
		}
		if u.IsGood() && u.IsStable && len(u.Witnesses) > 0 && SameWitnessList(u.Witnesses, witnesses) {
			found = u.Unit
			return false, nil
		}
		return true, nil
	})
	return found, err
}
