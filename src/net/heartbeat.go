package net

import (
	"time"
)

// inactivityFactor times HeartbeatTimeout is how long a peer may stay silent
// before it is disconnected.
const inactivityFactor = 4

// Heartbeat pings the peers that have been idle for HeartbeatTimeout and
// disconnects those silent for much longer. It is meant to be called
// periodically.
func (n *Network) Heartbeat() {
	now := time.Now()

	var idle, dead []*Peer

	n.mu.Lock()
	for _, p := range n.allPeersLocked() {
		since := now.Sub(p.lastActivity)
		switch {
		case since > inactivityFactor*n.conf.HeartbeatTimeout:
			dead = append(dead, p)
		case since > n.conf.HeartbeatTimeout:
			idle = append(idle, p)
		}
	}
	n.mu.Unlock()

	for _, p := range dead {
		n.closePeer(p, ErrInactive)
	}

	for _, p := range idle {
		n.SendRequest(p, "heartbeat", nil, false, func(p *Peer, req *Request, resp *Response) {
			if resp.Err != nil {
				p.logger.WithError(resp.Err).Debug("Heartbeat failed")
			}
		})
	}
}
