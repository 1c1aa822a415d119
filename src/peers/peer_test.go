package peers

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHostByURL(t *testing.T) {
	cases := map[string]string{
		"wss://victor.trustnote.org/tn":  "victor.trustnote.org",
		"ws://127.0.0.1:6611":            "127.0.0.1",
		"WSS://Hub.Example.com:443/path": "Hub.Example.com",
		"plainhost":                      "plainhost",
		"plainhost:80":                   "plainhost",
	}
	for url, want := range cases {
		if got := HostByURL(url); got != want {
			t.Fatalf("HostByURL(%s) = %s, want %s", url, got, want)
		}
	}
}

func TestNewPeerLowercases(t *testing.T) {
	p := NewPeer("WSS://Hub.Example.com/tn")
	if p.URL != "wss://hub.example.com/tn" {
		t.Fatalf("unexpected url %s", p.URL)
	}
	if p.Host != "hub.example.com" {
		t.Fatalf("unexpected host %s", p.Host)
	}
}

func TestPeersAddRemove(t *testing.T) {
	set := NewPeers()
	if !set.AddPeer(NewPeer("ws://b:1")) {
		t.Fatalf("first insert should be new")
	}
	set.AddPeer(NewPeer("ws://a:1"))
	if set.AddPeer(NewPeer("ws://b:1")) {
		t.Fatalf("second insert should not be new")
	}

	if !reflect.DeepEqual(set.ToURLSlice(), []string{"ws://a:1", "ws://b:1"}) {
		t.Fatalf("unexpected order %v", set.ToURLSlice())
	}

	set.RemovePeer("ws://a:1")
	if set.Len() != 1 {
		t.Fatalf("expected 1 peer, got %d", set.Len())
	}

	_, others := ExcludePeer(set.ToPeerSlice(), "ws://b:1")
	if len(others) != 0 {
		t.Fatalf("expected no other peers")
	}
}

func TestJSONPeers(t *testing.T) {
	dir, err := ioutil.TempDir("", "trustnote")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	store := NewJSONPeers(filepath.Join(dir, "peers.json"))

	// Try a read, should get nothing
	peers, err := store.Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("peers: %v", peers)
	}

	if err := store.AddPeerHost("hub.example.com"); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := store.AddPeer("hub.example.com", "wss://hub.example.com/tn"); err != nil {
		t.Fatalf("err: %v", err)
	}
	// duplicates are ignored
	if err := store.AddPeer("hub.example.com", "wss://hub.example.com/tn"); err != nil {
		t.Fatalf("err: %v", err)
	}

	reloaded := NewJSONPeers(filepath.Join(dir, "peers.json"))
	peers, err = reloaded.Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	expected := []*Peer{{URL: "wss://hub.example.com/tn", Host: "hub.example.com"}}
	if !reflect.DeepEqual(peers, expected) {
		t.Fatalf("peers should be the same. Got %v, expected %v", peers, expected)
	}
}

func TestStaticPeers(t *testing.T) {
	store := NewStaticPeers()
	store.AddPeerHost("a")
	store.AddPeer("a", "ws://a:1")

	peers, _ := store.Peers()
	if len(peers) != 1 || peers[0].URL != "ws://a:1" {
		t.Fatalf("unexpected peers %v", peers)
	}
	if !reflect.DeepEqual(store.Hosts(), []string{"a"}) {
		t.Fatalf("unexpected hosts %v", store.Hosts())
	}
}
