package peers

import "sync"

// StaticPeers is an in-memory Store.
type StaticPeers struct {
	l     sync.Mutex
	hosts map[string]bool
	peers *Peers
}

// NewStaticPeers creates an empty StaticPeers.
func NewStaticPeers() *StaticPeers {
	return &StaticPeers{
		hosts: make(map[string]bool),
		peers: NewPeers(),
	}
}

// AddPeerHost implements the Store interface.
func (s *StaticPeers) AddPeerHost(host string) error {
	s.l.Lock()
	s.hosts[host] = true
	s.l.Unlock()
	return nil
}

// AddPeer implements the Store interface.
func (s *StaticPeers) AddPeer(host, url string) error {
	s.peers.AddPeer(&Peer{URL: url, Host: host})
	return nil
}

// Peers implements the Store interface.
func (s *StaticPeers) Peers() ([]*Peer, error) {
	return s.peers.ToPeerSlice(), nil
}

// Hosts returns the recorded hosts.
func (s *StaticPeers) Hosts() []string {
	s.l.Lock()
	defer s.l.Unlock()

	res := make([]string, 0, len(s.hosts))
	for h := range s.hosts {
		res = append(res, h)
	}
	return res
}
