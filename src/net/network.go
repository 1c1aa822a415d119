package net

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/peers"
	"github.com/trustnote/trustnote-go/src/version"
	"golang.org/x/time/rate"
)

// WitnessProvider reads and records this node's witness list.
type WitnessProvider interface {
	ReadWitnesses() ([]string, error)
	InsertWitnesses(witnesses []string) error
}

// HubMessenger receives the hub/* notifications.
type HubMessenger interface {
	// MessageFromHub handles hub/challenge, hub/message and
	// hub/message_box_status.
	MessageFromHub(p *Peer, subject string, body []byte)
	// ReceivedPushProjectNumber handles hub/push_project_number from a hub we
	// are logging in or logged in to.
	ReceivedPushProjectNumber(p *Peer, body []byte)
}

// Stats counts connections.
type Stats struct {
	Inbound    int `json:"inbound"`
	Outbound   int `json:"outbound"`
	Connecting int `json:"connecting"`
}

// connectAttempt is an outbound dial in progress. done is closed when the
// dial completes, then peer or err is set.
type connectAttempt struct {
	done chan struct{}
	peer *Peer
	err  error
}

// Network is the registry of peer connections and the request engine running
// on them.
type Network struct {
	conf   *Config
	logger *logrus.Entry

	// mu guards the registry, the rerouted index and the per-peer tables.
	mu         sync.Mutex
	outbound   map[string]*Peer
	inbound    map[uint64]*Peer
	rerouted   map[string][]*Peer
	connecting *cache.Cache
	nextID     uint64
	shutdown   bool
	server     *http.Server

	commandsLock sync.RWMutex
	commands     map[string]CommandHandler

	known     *peers.Peers
	peerStore peers.Store
	witnesses WitnessProvider
	hub       HubMessenger

	limiter  *rate.Limiter
	dialer   *websocket.Dialer
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

// NewNetwork creates a Network. peerStore, witnesses and hub may be nil.
func NewNetwork(conf *Config,
	witnesses WitnessProvider,
	peerStore peers.Store,
	hub HubMessenger) *Network {

	if conf.Logger == nil {
		conf.Logger = logrus.New()
		conf.Logger.Level = logrus.DebugLevel
	}

	if peerStore == nil {
		peerStore = peers.NewStaticPeers()
	}

	dialRate := rate.Limit(conf.DialRate)
	if conf.DialRate <= 0 {
		dialRate = rate.Inf
	}

	ctx, cancel := context.WithCancel(context.Background())

	n := &Network{
		conf:       conf,
		logger:     conf.Logger.WithField("component", "network"),
		outbound:   make(map[string]*Peer),
		inbound:    make(map[uint64]*Peer),
		rerouted:   make(map[string][]*Peer),
		connecting: cache.New(conf.ConnectTimeout, 2*conf.ConnectTimeout),
		commands:   make(map[string]CommandHandler),
		known:      peers.NewPeers(),
		peerStore:  peerStore,
		witnesses:  witnesses,
		hub:        hub,
		limiter:    rate.NewLimiter(dialRate, 1),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 45 * time.Second,
		},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}

	n.registerBuiltinCommands()

	return n
}

/*******************************************************************************
Outbound
*******************************************************************************/

// FindOutboundPeerOrConnect returns the open outbound connection to url, or
// connects to it.
func (n *Network) FindOutboundPeerOrConnect(ctx context.Context, url string) (*Peer, error) {
	url = strings.ToLower(url)

	n.mu.Lock()
	p, ok := n.outbound[url]
	n.mu.Unlock()

	if ok {
		return p, nil
	}

	n.logger.WithField("url", url).Debug("Will connect")
	return n.Connect(ctx, url)
}

// Connect opens a connection to url and returns the canonical peer for it.
// While an attempt to the same url is younger than ConnectTimeout, callers
// wait for that attempt instead of dialing again. Older attempts are
// abandoned but may still succeed; the socket opened last is then closed as
// a duplicate.
func (n *Network) Connect(ctx context.Context, url string) (*Peer, error) {
	url = strings.ToLower(url)

	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return nil, ErrNetworkShutdown
	}
	if p, ok := n.outbound[url]; ok {
		n.mu.Unlock()
		return p, nil
	}
	attempt, inFlight := n.connectingAttempt(url)
	if !inFlight {
		attempt = &connectAttempt{done: make(chan struct{})}
		n.connecting.SetDefault(url, attempt)
	}
	n.mu.Unlock()

	n.addPeer(url)

	if !inFlight {
		go n.dial(url, attempt)
	}

	select {
	case <-attempt.done:
		return attempt.peer, attempt.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (n *Network) connectingAttempt(url string) (*connectAttempt, bool) {
	x, ok := n.connecting.Get(url)
	if !ok {
		return nil, false
	}
	return x.(*connectAttempt), true
}

func (n *Network) dial(target string, attempt *connectAttempt) {
	defer close(attempt.done)

	logger := n.logger.WithField("url", target)

	if err := n.limiter.Wait(n.ctx); err != nil {
		attempt.err = ErrNetworkShutdown
		n.forgetAttempt(target, attempt)
		return
	}

	conn, resp, err := n.dialer.DialContext(n.ctx, target, nil)

	n.forgetAttempt(target, attempt)

	if err != nil {
		logger.WithError(err).Debug("Connect failed")
		attempt.err = err
		return
	}

	if resp != nil && resp.Request != nil && !sameEndpoint(target, resp.Request.URL) {
		logger.WithField("got", resp.Request.URL.String()).Error("Connection answered for another URL")
		conn.Close()
		attempt.err = ErrContractViolation
		return
	}

	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		conn.Close()
		attempt.err = ErrNetworkShutdown
		return
	}
	if existing, ok := n.outbound[target]; ok {
		n.mu.Unlock()
		logger.Debug("Already connected, closing the duplicate")
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "duplicate connection")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
		attempt.peer = existing
		return
	}
	n.nextID++
	p := newPeer(n, conn, target, peers.HostByURL(target), false, n.nextID)
	n.outbound[target] = p
	stats := n.statsLocked()
	n.mu.Unlock()

	p.start()

	logger.WithFields(logrus.Fields{
		"host":  p.Host,
		"stats": stats,
	}).Debug("Connected")

	n.sendVersion(p)
	if n.conf.MyURL != "" {
		n.SendNotify(p, "my_url", n.conf.MyURL)
	}

	attempt.peer = p
}

// forgetAttempt removes attempt from the connecting table, unless it was
// already abandoned and replaced.
func (n *Network) forgetAttempt(target string, attempt *connectAttempt) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if current, ok := n.connectingAttempt(target); ok && current == attempt {
		n.connecting.Delete(target)
	}
}

// sameEndpoint compares the dialed websocket URL with the URL of the HTTP
// handshake. Some servers add a trailing slash.
func sameEndpoint(target string, got *url.URL) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if !strings.EqualFold(u.Host, got.Host) {
		return false
	}
	return strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(got.Path, "/")
}

/*******************************************************************************
Inbound
*******************************************************************************/

// ServeHTTP accepts inbound websocket connections.
func (n *Network) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	full := n.conf.MaxInbound > 0 && len(n.inbound) >= n.conf.MaxInbound
	shutdown := n.shutdown
	n.mu.Unlock()

	if shutdown {
		http.Error(w, ErrNetworkShutdown.Error(), http.StatusServiceUnavailable)
		return
	}
	if full {
		n.logger.WithField("from", r.RemoteAddr).Debug("Rejecting inbound connection")
		http.Error(w, ErrTooManyInbound.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.WithError(err).Debug("Upgrade failed")
		return
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		conn.Close()
		return
	}
	n.nextID++
	p := newPeer(n, conn, "", host, true, n.nextID)
	n.inbound[p.id] = p
	stats := n.statsLocked()
	n.mu.Unlock()

	p.start()

	p.logger.WithFields(logrus.Fields{
		"from":  r.RemoteAddr,
		"stats": stats,
	}).Debug("Accepted connection")

	n.sendVersion(p)
}

// Listen serves websocket connections on addr until Close.
func (n *Network) Listen(addr string) error {
	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return ErrNetworkShutdown
	}
	srv := &http.Server{Addr: addr, Handler: n}
	n.server = srv
	n.mu.Unlock()

	n.logger.WithField("addr", addr).Debug("Listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

/*******************************************************************************
Registry
*******************************************************************************/

// OutboundPeers returns the open outbound connections.
func (n *Network) OutboundPeers() []*Peer {
	n.mu.Lock()
	defer n.mu.Unlock()

	res := make([]*Peer, 0, len(n.outbound))
	for _, p := range n.outbound {
		res = append(res, p)
	}
	return res
}

// InboundPeers returns the accepted connections.
func (n *Network) InboundPeers() []*Peer {
	n.mu.Lock()
	defer n.mu.Unlock()

	res := make([]*Peer, 0, len(n.inbound))
	for _, p := range n.inbound {
		res = append(res, p)
	}
	return res
}

// Stats returns the number of inbound, outbound and connecting connections.
func (n *Network) Stats() Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.statsLocked()
}

func (n *Network) statsLocked() Stats {
	return Stats{
		Inbound:    len(n.inbound),
		Outbound:   len(n.outbound),
		Connecting: len(n.connecting.Items()),
	}
}

func (n *Network) allPeersLocked() []*Peer {
	res := make([]*Peer, 0, len(n.outbound)+len(n.inbound))
	for _, p := range n.outbound {
		res = append(res, p)
	}
	for _, p := range n.inbound {
		res = append(res, p)
	}
	return res
}

// addPeer records a peer URL, once per process. Persistence is best effort.
func (n *Network) addPeer(url string) {
	peer := peers.NewPeer(url)
	if !n.known.AddPeer(peer) {
		return
	}

	go func() {
		if err := n.peerStore.AddPeerHost(peer.Host); err != nil {
			n.logger.WithError(err).WithField("host", peer.Host).Warn("Failed to record peer host")
			return
		}
		if err := n.peerStore.AddPeer(peer.Host, peer.URL); err != nil {
			n.logger.WithError(err).WithField("url", peer.URL).Warn("Failed to record peer")
		}
	}()
}

// closePeer removes p from the registry, resolves its pending requests and
// closes the socket after the queued frames are written.
func (n *Network) closePeer(p *Peer, reason error) {
	n.mu.Lock()
	if p.closed {
		n.mu.Unlock()
		return
	}
	p.closed = true
	p.closeReason = reason

	if p.Inbound {
		delete(n.inbound, p.id)
	} else if n.outbound[p.URL] == p {
		delete(n.outbound, p.URL)
	}

	n.cancelRequestsOnClosedConnection(p)

	stats := n.statsLocked()
	n.mu.Unlock()

	close(p.quit)

	p.logger.WithFields(logrus.Fields{
		"reason": reason,
		"stats":  stats,
	}).Debug("Connection closed")
}

// Close closes every connection and stops listening.
func (n *Network) Close() error {
	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		return nil
	}
	n.shutdown = true
	srv := n.server
	all := n.allPeersLocked()
	n.mu.Unlock()

	n.cancel()

	var err error
	if srv != nil {
		err = srv.Close()
	}

	for _, p := range all {
		n.closePeer(p, ErrNetworkShutdown)
	}

	return err
}

/*******************************************************************************
Notifications
*******************************************************************************/

// SendNotify sends a notification to p.
func (n *Network) SendNotify(p *Peer, subject string, body interface{}) error {
	nt := struct {
		Subject string      `json:"subject"`
		Body    interface{} `json:"body,omitempty"`
	}{subject, body}

	data, err := encodeFrame(KindNotify, nt)
	if err != nil {
		return err
	}

	if !p.send(data) {
		return ErrConnectionClosed
	}
	return nil
}

// SendError sends an error notification to p.
func (n *Network) SendError(p *Peer, msg string) error {
	return n.SendNotify(p, "error", msg)
}

func (n *Network) sendVersion(p *Peer) {
	n.SendNotify(p, "version", &VersionBody{
		ProtocolVersion: version.ProtocolVersion,
		Alt:             version.Alt,
		Library:         version.Library,
		LibraryVersion:  version.Version,
		Program:         n.conf.Program,
		ProgramVersion:  n.conf.ProgramVersion,
	})
}
