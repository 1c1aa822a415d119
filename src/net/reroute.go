package net

import (
	"github.com/buraksezer/consistent"
	"github.com/cespare/xxhash"
	"github.com/sirupsen/logrus"
)

// ringConfig spreads request tags over the candidate peers.
var ringConfig = consistent.Config{
	PartitionCount:    271,
	ReplicationFactor: 20,
	Load:              1.25,
	Hasher:            xxHasher{},
}

type xxHasher struct{}

func (h xxHasher) Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// ringMember adapts a peer key to consistent.Member.
type ringMember string

func (m ringMember) String() string {
	return string(m)
}

// rerouteLocked sends a copy of the request pending on p to another peer and
// records both in the rerouted index. It returns false if the request was
// already rerouted or no other peer can take it. The caller holds the network
// lock.
func (n *Network) rerouteLocked(p *Peer, tag string) bool {
	pr, ok := p.pending[tag]
	if !ok || pr.rerouted {
		return false
	}

	tried := n.rerouted[tag]
	if len(tried) == 0 {
		tried = []*Peer{p}
	}

	target := n.pickRerouteTarget(tag, tried)
	if target == nil {
		p.logger.WithField("command", pr.request.Command).Debug("No peer to reroute to")
		return false
	}

	pr.rerouted = true
	n.rerouted[tag] = append(tried, target)

	p.logger.WithFields(logrus.Fields{
		"command": pr.request.Command,
		"to":      target.Key(),
	}).Debug("Rerouting request")

	n.sendRequestLocked(target, pr.request, true, pr.responders)

	return true
}

// pickRerouteTarget locates tag on a hash ring of the open peers that were not
// tried yet and have nothing pending under this tag. Nothing is rerouted once
// the network is shutting down.
func (n *Network) pickRerouteTarget(tag string, tried []*Peer) *Peer {
	if n.shutdown {
		return nil
	}

	excluded := make(map[*Peer]bool, len(tried))
	for _, q := range tried {
		excluded[q] = true
	}

	members := []consistent.Member{}
	byKey := make(map[string]*Peer)
	for _, q := range n.allPeersLocked() {
		if q.closed || excluded[q] {
			continue
		}
		if _, busy := q.pending[tag]; busy {
			continue
		}
		members = append(members, ringMember(q.Key()))
		byKey[q.Key()] = q
	}

	if len(members) == 0 {
		return nil
	}

	ring := consistent.New(members, ringConfig)
	return byKey[ring.LocateKey([]byte(tag)).String()]
}
