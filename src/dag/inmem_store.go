package dag

import (
	"sort"
	"sync"

	cm "github.com/trustnote/trustnote-go/src/common"
)

// InmemStore implements the Store interface with in-memory maps. View holds a
// read lock for its whole duration, so writers wait for running compositions.
type InmemStore struct {
	sync.RWMutex
	units     map[string]*Unit
	archived  map[string]bool
	witnesses []string
}

// NewInmemStore creates an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		units:    make(map[string]*Unit),
		archived: make(map[string]bool),
	}
}

// View implements the Store interface.
func (s *InmemStore) View(fn func(Snapshot) error) error {
	s.RLock()
	defer s.RUnlock()
	return fn(&inmemSnapshot{s})
}

// SetUnit implements the Store interface.
func (s *InmemStore) SetUnit(unit *Unit) error {
	s.Lock()
	defer s.Unlock()
	s.units[unit.Unit] = unit.Copy()
	return nil
}

// SetArchived implements the Store interface.
func (s *InmemStore) SetArchived(unit string) error {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.units[unit]; !ok {
		return cm.NewStoreErr("UnitCache", cm.KeyNotFound, unit)
	}
	s.archived[unit] = true
	return nil
}

// ReadWitnesses implements the Store interface.
func (s *InmemStore) ReadWitnesses() ([]string, error) {
	s.RLock()
	defer s.RUnlock()
	return append([]string{}, s.witnesses...), nil
}

// InsertWitnesses implements the Store interface.
func (s *InmemStore) InsertWitnesses(witnesses []string) error {
	s.Lock()
	defer s.Unlock()
	s.witnesses = append([]string{}, witnesses...)
	return nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}

// inmemSnapshot reads the maps of its store. The caller holds the read lock.
type inmemSnapshot struct {
	s *InmemStore
}

func (v *inmemSnapshot) GetUnit(unit string) (*Unit, error) {
	u, ok := v.s.units[unit]
	if !ok {
		return nil, cm.NewStoreErr("UnitCache", cm.KeyNotFound, unit)
	}
	return u.Copy(), nil
}

func (v *inmemSnapshot) FreeUnits() ([]*Unit, error) {
	res := []*Unit{}
	for _, u := range v.s.units {
		if u.IsFree {
			res = append(res, u.Copy())
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Unit < res[j].Unit
	})
	return res, nil
}

func (v *inmemSnapshot) MainChainIndexDesc(fn func(*Unit) (bool, error)) error {
	res := make([]*Unit, 0, len(v.s.units))
	for _, u := range v.s.units {
		res = append(res, u)
	}
	sort.Sort(ByMainChainIndexDesc(res))

	for _, u := range res {
		more, err := fn(u.Copy())
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func (v *inmemSnapshot) IsArchived(unit string) (bool, error) {
	return v.s.archived[unit], nil
}

// ByMainChainIndexDesc implements sort.Interface for units: main chain index
// descending, then unit id, units without main chain index last.
type ByMainChainIndexDesc []*Unit

func (a ByMainChainIndexDesc) Len() int      { return len(a) }
func (a ByMainChainIndexDesc) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a ByMainChainIndexDesc) Less(i, j int) bool {
	hi, hj := a[i].HasMainChainIndex(), a[j].HasMainChainIndex()
	if hi != hj {
		return hi
	}
	if a[i].MainChainIndex != a[j].MainChainIndex {
		return a[i].MainChainIndex > a[j].MainChainIndex
	}
	return a[i].Unit < a[j].Unit
}
