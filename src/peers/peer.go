package peers

import (
	"regexp"
	"strings"
)

var (
	schemeRe = regexp.MustCompile(`(?i)^wss?://(.*)$`)
	hostRe   = regexp.MustCompile(`^(.*?)[:/]`)
)

// Peer is a remote node reachable at URL.
type Peer struct {
	URL  string `json:"peer"`
	Host string `json:"peer_host"`
}

// NewPeer creates a Peer from a URL, deriving its host.
func NewPeer(url string) *Peer {
	url = strings.ToLower(url)
	return &Peer{
		URL:  url,
		Host: HostByURL(url),
	}
}

// HostByURL strips the websocket scheme, the port and the path from a peer
// URL.
func HostByURL(url string) string {
	if m := schemeRe.FindStringSubmatch(url); m != nil {
		url = m[1]
	}
	if m := hostRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return url
}

// ExcludePeer is used to exclude a single peer from a list of peers.
func ExcludePeer(peers []*Peer, url string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.URL != url {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}
