package node

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/trustnote/trustnote-go/src/peers"
)

// PeerSelector chooses the next peer URL to connect to.
type PeerSelector interface {
	UpdateLast(url string)
	Next(exclude map[string]bool) string
}

// RandomPeerSelector picks a random URL among the initial peers and the peers
// recorded in a peers.Store. It avoids returning the same URL twice in a row
// when there is a choice.
type RandomPeerSelector struct {
	sync.Mutex

	initial []string
	store   peers.Store
	myURL   string
	last    string
}

// NewRandomPeerSelector ...
func NewRandomPeerSelector(initial []string, store peers.Store, myURL string) *RandomPeerSelector {
	lowered := make([]string, len(initial))
	for i, u := range initial {
		lowered[i] = strings.ToLower(u)
	}
	return &RandomPeerSelector{
		initial: lowered,
		store:   store,
		myURL:   strings.ToLower(myURL),
	}
}

// UpdateLast sets the last peer
func (ps *RandomPeerSelector) UpdateLast(url string) {
	ps.Lock()
	ps.last = url
	ps.Unlock()
}

// Next returns a URL that is not in exclude, or "" if there is none.
func (ps *RandomPeerSelector) Next(exclude map[string]bool) string {
	ps.Lock()
	defer ps.Unlock()

	candidates := ps.candidates(exclude)

	if len(candidates) == 0 {
		return ""
	}

	if len(candidates) > 1 {
		_, others := peers.ExcludePeer(candidates, ps.last)
		if len(others) > 0 {
			candidates = others
		}
	}

	url := candidates[rand.Intn(len(candidates))].URL
	ps.last = url
	return url
}

func (ps *RandomPeerSelector) candidates(exclude map[string]bool) []*peers.Peer {
	known := peers.NewPeers()

	for _, u := range ps.initial {
		known.AddPeer(peers.NewPeer(u))
	}

	if ps.store != nil {
		stored, err := ps.store.Peers()
		if err == nil {
			for _, p := range stored {
				known.AddPeer(peers.NewPeer(p.URL))
			}
		}
	}

	res := []*peers.Peer{}
	for _, p := range known.ToPeerSlice() {
		if p.URL == ps.myURL || exclude[p.URL] {
			continue
		}
		res = append(res, p)
	}
	return res
}
