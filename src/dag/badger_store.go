package dag

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cm "github.com/trustnote/trustnote-go/src/common"
	"github.com/trustnote/trustnote-go/src/peers"
)

const (
	unitPrefix     = "unit"
	freePrefix     = "free"
	mciPrefix      = "mci"
	noMCIPrefix    = "nomci"
	archivedPrefix = "archived"
	peerHostPrefix = "peerhost"
	peerURLPrefix  = "peerurl"
	witnessesKey   = "my_witnesses"
)

// BadgerStore implements the Store interface on top of a Badger database. A
// View is a Badger read transaction, which gives compositions a consistent
// snapshot while units keep being written. It also records known peers.
type BadgerStore struct {
	db     *badger.DB
	path   string
	logger *logrus.Entry
}

// NewBadgerStore opens an existing database or creates a new one if nothing is
// found in path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithTruncate(true)

	if logger != nil {
		sub := logger.WithFields(logrus.Fields{"ns": "badger"})
		opts = opts.WithLogger(sub)
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger database in %s", path)
	}

	store := &BadgerStore{
		db:     handle,
		path:   path,
		logger: logger,
	}
	return store, nil
}

/*******************************************************************************
Keys
*******************************************************************************/

func unitKey(unit string) []byte {
	return []byte(fmt.Sprintf("%s_%s", unitPrefix, unit))
}

func freeKey(unit string) []byte {
	return []byte(fmt.Sprintf("%s_%s", freePrefix, unit))
}

// mciKey sorts lexicographically by main chain index, then unit id.
func mciKey(mci int, unit string) []byte {
	return []byte(fmt.Sprintf("%s_%012d_%s", mciPrefix, mci, unit))
}

func noMCIKey(unit string) []byte {
	return []byte(fmt.Sprintf("%s_%s", noMCIPrefix, unit))
}

func archivedKey(unit string) []byte {
	return []byte(fmt.Sprintf("%s_%s", archivedPrefix, unit))
}

func peerHostKey(host string) []byte {
	return []byte(fmt.Sprintf("%s_%s", peerHostPrefix, host))
}

func peerURLKey(url string) []byte {
	return []byte(fmt.Sprintf("%s_%s", peerURLPrefix, url))
}

func prefix(p string) []byte {
	return []byte(p + "_")
}

// unitFromIndexKey extracts the unit id following the first skip bytes of an
// index key.
func unitFromIndexKey(key []byte, skip int) string {
	return string(key[skip:])
}

/*******************************************************************************
Store
*******************************************************************************/

// View implements the Store interface.
func (s *BadgerStore) View(fn func(Snapshot) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerSnapshot{txn})
	})
}

// SetUnit implements the Store interface. Index entries of a previous version
// of the unit are replaced.
func (s *BadgerStore) SetUnit(unit *Unit) error {
	val, err := unit.Marshal()
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		old, err := txnGetUnit(txn, unit.Unit)
		if err != nil && !cm.IsStore(err, cm.KeyNotFound) {
			return err
		}
		if old != nil {
			for _, k := range indexKeys(old) {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		}

		if err := txn.Set(unitKey(unit.Unit), val); err != nil {
			return err
		}
		for _, k := range indexKeys(unit) {
			if err := txn.Set(k, []byte{}); err != nil {
				return err
			}
		}
		return nil
	})

	return errors.Wrapf(err, "storing unit %s", unit.Unit)
}

func indexKeys(u *Unit) [][]byte {
	keys := [][]byte{}
	if u.IsFree {
		keys = append(keys, freeKey(u.Unit))
	}
	if u.HasMainChainIndex() {
		keys = append(keys, mciKey(u.MainChainIndex, u.Unit))
	} else {
		keys = append(keys, noMCIKey(u.Unit))
	}
	return keys
}

// SetArchived implements the Store interface.
func (s *BadgerStore) SetArchived(unit string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txnGetUnit(txn, unit); err != nil {
			return err
		}
		return txn.Set(archivedKey(unit), []byte{})
	})
}

// ReadWitnesses implements the Store interface.
func (s *BadgerStore) ReadWitnesses() ([]string, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(witnessesKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if isDBKeyNotFound(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading witnesses")
	}

	witnesses := []string{}
	if err := json.Unmarshal(data, &witnesses); err != nil {
		return nil, cm.NewStoreErr("Witnesses", cm.Corrupted, witnessesKey)
	}
	return witnesses, nil
}

// InsertWitnesses implements the Store interface.
func (s *BadgerStore) InsertWitnesses(witnesses []string) error {
	val, err := json.Marshal(witnesses)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(witnessesKey), val)
	})
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

/*******************************************************************************
peers.Store
*******************************************************************************/

// AddPeerHost implements the peers.Store interface.
func (s *BadgerStore) AddPeerHost(host string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(peerHostKey(host), []byte{})
	})
}

// AddPeer implements the peers.Store interface.
func (s *BadgerStore) AddPeer(host, url string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(peerURLKey(url), []byte(host))
	})
}

// Peers implements the peers.Store interface.
func (s *BadgerStore) Peers() ([]*peers.Peer, error) {
	res := []*peers.Peer{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		pfx := prefix(peerURLPrefix)
		for it.Seek(pfx); it.ValidForPrefix(pfx); it.Next() {
			item := it.Item()
			host, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			res = append(res, &peers.Peer{
				URL:  string(item.Key()[len(pfx):]),
				Host: string(host),
			})
		}
		return nil
	})
	return res, err
}

/*******************************************************************************
Snapshot
*******************************************************************************/

type badgerSnapshot struct {
	txn *badger.Txn
}

func (v *badgerSnapshot) GetUnit(unit string) (*Unit, error) {
	return txnGetUnit(v.txn, unit)
}

func (v *badgerSnapshot) FreeUnits() ([]*Unit, error) {
	res := []*Unit{}

	it := v.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	pfx := prefix(freePrefix)
	for it.Seek(pfx); it.ValidForPrefix(pfx); it.Next() {
		u, err := txnGetUnit(v.txn, unitFromIndexKey(it.Item().Key(), len(pfx)))
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}

	return res, nil
}

func (v *badgerSnapshot) MainChainIndexDesc(fn func(*Unit) (bool, error)) error {
	more, err := v.mainChainDesc(fn)
	if err != nil || !more {
		return err
	}
	return v.withoutMainChainIndex(fn)
}

// mainChainDesc walks the mci index backwards. Keys with the same index come
// out in descending unit order, so each group is buffered and replayed in
// ascending order.
func (v *badgerSnapshot) mainChainDesc(fn func(*Unit) (bool, error)) (bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = true
	it := v.txn.NewIterator(opts)
	defer it.Close()

	pfx := prefix(mciPrefix)
	group := []string{}
	groupMCI := ""

	flush := func() (bool, error) {
		sort.Strings(group)
		for _, id := range group {
			u, err := txnGetUnit(v.txn, id)
			if err != nil {
				return false, err
			}
			more, err := fn(u)
			if err != nil || !more {
				return false, err
			}
		}
		group = group[:0]
		return true, nil
	}

	for it.Seek(append(pfx, 0xff)); it.ValidForPrefix(pfx); it.Next() {
		k := string(it.Item().Key())
		mci := k[len(pfx) : len(pfx)+12]
		if mci != groupMCI && len(group) > 0 {
			if more, err := flush(); err != nil || !more {
				return false, err
			}
		}
		groupMCI = mci
		// mci_<12 digits>_<unit>
		group = append(group, unitFromIndexKey(it.Item().Key(), len(pfx)+13))
	}

	return flush()
}

func (v *badgerSnapshot) withoutMainChainIndex(fn func(*Unit) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := v.txn.NewIterator(opts)
	defer it.Close()

	pfx := prefix(noMCIPrefix)
	for it.Seek(pfx); it.ValidForPrefix(pfx); it.Next() {
		u, err := txnGetUnit(v.txn, unitFromIndexKey(it.Item().Key(), len(pfx)))
		if err != nil {
			return err
		}
		more, err := fn(u)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

func (v *badgerSnapshot) IsArchived(unit string) (bool, error) {
	_, err := v.txn.Get(archivedKey(unit))
	if isDBKeyNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

/*******************************************************************************
Helpers
*******************************************************************************/

func txnGetUnit(txn *badger.Txn, unit string) (*Unit, error) {
	item, err := txn.Get(unitKey(unit))
	if err != nil {
		return nil, mapError(err, "Unit", unit)
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	u := new(Unit)
	if err := u.Unmarshal(data); err != nil {
		return nil, cm.NewStoreErr("Unit", cm.Corrupted, unit)
	}
	return u, nil
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, name, key string) error {
	if isDBKeyNotFound(err) {
		return cm.NewStoreErr(name, cm.KeyNotFound, key)
	}
	return err
}
