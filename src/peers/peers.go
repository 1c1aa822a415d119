package peers

import (
	"sort"
	"sync"
)

// Store records peers. Implementations must tolerate repeated inserts of the
// same host or URL.
type Store interface {
	AddPeerHost(host string) error
	AddPeer(host, url string) error
	Peers() ([]*Peer, error)
}

// Peers is a set of known peers ordered by URL.
type Peers struct {
	sync.RWMutex
	Sorted []*Peer
	ByURL  map[string]*Peer
}

/* Constructors */

// NewPeers creates an empty set.
func NewPeers() *Peers {
	return &Peers{
		ByURL: make(map[string]*Peer),
	}
}

// NewPeersFromSlice creates a set from a list of peers.
func NewPeersFromSlice(source []*Peer) *Peers {
	peers := NewPeers()

	for _, peer := range source {
		peers.addPeerRaw(peer)
	}

	peers.internalSort()

	return peers
}

/* Add Methods */

// Add a peer without sorting the set.
// This method is private and is not protected by mutex.
func (p *Peers) addPeerRaw(peer *Peer) {
	if peer.Host == "" {
		peer.Host = HostByURL(peer.URL)
	}
	p.ByURL[peer.URL] = peer
}

// AddPeer adds a peer and reports whether it was not already known.
func (p *Peers) AddPeer(peer *Peer) bool {
	p.Lock()
	defer p.Unlock()

	if _, ok := p.ByURL[peer.URL]; ok {
		return false
	}

	p.addPeerRaw(peer)

	p.internalSort()

	return true
}

func (p *Peers) internalSort() {
	res := []*Peer{}

	for _, p := range p.ByURL {
		res = append(res, p)
	}

	sort.Sort(ByURL(res))

	p.Sorted = res
}

/* Remove Methods */

// RemovePeer removes a peer by URL.
func (p *Peers) RemovePeer(url string) {
	p.Lock()
	defer p.Unlock()

	if _, ok := p.ByURL[url]; !ok {
		return
	}

	delete(p.ByURL, url)

	p.internalSort()
}

/* ToSlice Methods */

// ToPeerSlice returns the sorted peers.
func (p *Peers) ToPeerSlice() []*Peer {
	p.RLock()
	defer p.RUnlock()

	return p.Sorted
}

// ToURLSlice returns the sorted URLs.
func (p *Peers) ToURLSlice() []string {
	p.RLock()
	defer p.RUnlock()

	res := []string{}

	for _, peer := range p.Sorted {
		res = append(res, peer.URL)
	}

	return res
}

/* Utilities */

// Len returns the number of peers.
func (p *Peers) Len() int {
	p.RLock()
	defer p.RUnlock()

	return len(p.ByURL)
}

// ByURL implements sort.Interface for Peers based on the URL field.
type ByURL []*Peer

func (a ByURL) Len() int      { return len(a) }
func (a ByURL) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a ByURL) Less(i, j int) bool {
	return a[i].URL < a[j].URL
}
