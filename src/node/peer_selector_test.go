package node

import (
	"testing"

	"github.com/trustnote/trustnote-go/src/peers"
)

func TestRandomPeerSelector(t *testing.T) {
	store := peers.NewStaticPeers()
	store.AddPeer("c.org", "wss://c.org/bb")

	ps := NewRandomPeerSelector([]string{"wss://A.org/bb", "wss://b.org/bb"}, store, "wss://a.org/bb")

	seen := map[string]bool{}
	last := ""
	for i := 0; i < 20; i++ {
		url := ps.Next(nil)
		if url == "wss://a.org/bb" {
			t.Fatal("selector should not return our own URL")
		}
		if url == last {
			t.Fatalf("selector returned %s twice in a row", url)
		}
		seen[url] = true
		last = url
	}

	if len(seen) != 2 || !seen["wss://b.org/bb"] || !seen["wss://c.org/bb"] {
		t.Fatalf("wrong selection %v", seen)
	}

	if url := ps.Next(map[string]bool{"wss://b.org/bb": true}); url != "wss://c.org/bb" {
		t.Fatalf("expected wss://c.org/bb, got %s", url)
	}

	// a single candidate may be returned again
	if url := ps.Next(map[string]bool{"wss://b.org/bb": true}); url != "wss://c.org/bb" {
		t.Fatalf("expected wss://c.org/bb, got %s", url)
	}

	if url := ps.Next(map[string]bool{"wss://b.org/bb": true, "wss://c.org/bb": true}); url != "" {
		t.Fatalf("expected no candidate, got %s", url)
	}
}
