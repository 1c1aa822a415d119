package dag

import (
	"io/ioutil"
	"os"
	"reflect"
	"testing"

	"github.com/trustnote/trustnote-go/src/common"
	"github.com/trustnote/trustnote-go/src/peers"
)

func initBadgerStore(t *testing.T) *BadgerStore {
	dir, err := ioutil.TempDir("", "badger")
	if err != nil {
		t.Fatal(err)
	}

	store, err := NewBadgerStore(dir, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatal(err)
	}

	return store
}

func removeBadgerStore(store *BadgerStore, t *testing.T) {
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(store.path); err != nil {
		t.Fatal(err)
	}
}

func TestBadgerStore(t *testing.T) {
	store := initBadgerStore(t)
	defer removeBadgerStore(store, t)

	testStore(t, store)
}

func TestBadgerComposer(t *testing.T) {
	store := initBadgerStore(t)
	defer removeBadgerStore(store, t)

	testComposer(t, store)
}

func TestBadgerStoreReopen(t *testing.T) {
	store := initBadgerStore(t)
	path := store.StorePath()
	defer os.RemoveAll(path)

	u := NewUnit("u", "p")
	u.Witnesses = makeWitnesses("w")
	if err := store.SetUnit(u); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err := NewBadgerStore(path, common.NewTestEntry(t, common.TestLogLevel))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	store.View(func(snap Snapshot) error {
		got, err := snap.GetUnit("u")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(u, got) {
			t.Fatalf("unit should be %#v, not %#v", u, got)
		}
		return nil
	})
}

func TestBadgerPeers(t *testing.T) {
	store := initBadgerStore(t)
	defer removeBadgerStore(store, t)

	var _ peers.Store = store

	if err := store.AddPeerHost("a.example.org"); err != nil {
		t.Fatal(err)
	}
	if err := store.AddPeer("a.example.org", "wss://a.example.org/tn"); err != nil {
		t.Fatal(err)
	}
	if err := store.AddPeer("a.example.org", "wss://a.example.org/tn"); err != nil {
		t.Fatal(err)
	}

	ps, err := store.Peers()
	if err != nil {
		t.Fatal(err)
	}
	expected := []*peers.Peer{{URL: "wss://a.example.org/tn", Host: "a.example.org"}}
	if !reflect.DeepEqual(expected, ps) {
		t.Fatalf("peers should be %v, not %v", expected, ps)
	}
}
