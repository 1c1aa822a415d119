package net

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// sendQueueSize is the number of frames buffered for a peer.
	sendQueueSize = 256

	// maxMessageSize is the largest frame accepted from a peer.
	maxMessageSize = 16 << 20

	writeWait = 10 * time.Second
)

// Peer is an open websocket connection to another node. Outbound peers are
// identified by URL, inbound peers by an anonymous handle.
type Peer struct {
	URL     string
	Host    string
	Inbound bool

	id      uint64
	network *Network
	conn    *websocket.Conn
	logger  *logrus.Entry

	sendCh chan []byte
	quit   chan struct{}
	done   chan struct{}

	// Guarded by the network lock.
	pending      map[string]*pendingRequest
	inPreparing  map[string]bool
	lastActivity time.Time
	version      *VersionBody
	loggingIn    bool
	loggedIn     bool
	closed       bool
	closeReason  error
}

func newPeer(n *Network, conn *websocket.Conn, url, host string, inbound bool, id uint64) *Peer {
	p := &Peer{
		URL:          url,
		Host:         host,
		Inbound:      inbound,
		id:           id,
		network:      n,
		conn:         conn,
		sendCh:       make(chan []byte, sendQueueSize),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		pending:      make(map[string]*pendingRequest),
		inPreparing:  make(map[string]bool),
		lastActivity: time.Now(),
	}
	p.logger = n.logger.WithField("peer", p.Key())
	conn.SetReadLimit(maxMessageSize)
	return p
}

// Key identifies the peer in the registry: its URL, or a handle for inbound
// peers.
func (p *Peer) Key() string {
	if p.Inbound {
		return fmt.Sprintf("inbound-%d", p.id)
	}
	return p.URL
}

// String ...
func (p *Peer) String() string {
	return p.Key()
}

// Version returns what the peer reported in its version notification, or nil.
func (p *Peer) Version() *VersionBody {
	p.network.mu.Lock()
	defer p.network.mu.Unlock()
	return p.version
}

// LastActivity returns when the last frame was received from the peer.
func (p *Peer) LastActivity() time.Time {
	p.network.mu.Lock()
	defer p.network.mu.Unlock()
	return p.lastActivity
}

// SetLoggingIn marks the peer as a hub we are logging in to.
func (p *Peer) SetLoggingIn(b bool) {
	p.network.mu.Lock()
	p.loggingIn = b
	p.network.mu.Unlock()
}

// SetLoggedIn marks the peer as a hub we are logged in to.
func (p *Peer) SetLoggedIn(b bool) {
	p.network.mu.Lock()
	p.loggedIn = b
	p.network.mu.Unlock()
}

// IsClosed reports whether the connection was closed.
func (p *Peer) IsClosed() bool {
	p.network.mu.Lock()
	defer p.network.mu.Unlock()
	return p.closed
}

// PendingCount returns the number of requests waiting for a response from
// this peer.
func (p *Peer) PendingCount() int {
	p.network.mu.Lock()
	defer p.network.mu.Unlock()
	return len(p.pending)
}

// Close closes the connection. Pending requests are rerouted or failed.
func (p *Peer) Close() {
	p.network.closePeer(p, ErrConnectionClosed)
}

// send queues a frame. It never blocks, so it may be called with the network
// lock held. A peer that does not drain its queue is disconnected.
func (p *Peer) send(data []byte) bool {
	select {
	case <-p.quit:
		return false
	default:
	}

	select {
	case p.sendCh <- data:
		return true
	default:
		p.logger.Warn("Send queue full, closing connection")
		go p.network.closePeer(p, ErrConnectionClosed)
		return false
	}
}

func (p *Peer) start() {
	go p.writeLoop()
	go p.readLoop()
}

func (p *Peer) readLoop() {
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.WithError(err).Debug("Read failed")
			}
			p.network.closePeer(p, ErrConnectionClosed)
			return
		}
		p.network.handleMessage(p, data)
	}
}

func (p *Peer) writeLoop() {
	defer close(p.done)

	for {
		select {
		case data := <-p.sendCh:
			if err := p.write(data); err != nil {
				p.logger.WithError(err).Debug("Write failed")
				p.network.closePeer(p, ErrConnectionClosed)
			}
		case <-p.quit:
			// frames queued before the close, like an error notification,
			// still go out
			for {
				select {
				case data := <-p.sendCh:
					if err := p.write(data); err != nil {
						p.conn.Close()
						return
					}
					continue
				default:
				}
				break
			}
			p.shutdown()
			return
		}
	}
}

func (p *Peer) write(data []byte) error {
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *Peer) shutdown() {
	reason := ""
	p.network.mu.Lock()
	if p.closeReason != nil {
		reason = p.closeReason.Error()
	}
	p.network.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	p.conn.Close()
}
