package node

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/config"
	"github.com/trustnote/trustnote-go/src/dag"
	"github.com/trustnote/trustnote-go/src/hub"
	"github.com/trustnote/trustnote-go/src/net"
	"github.com/trustnote/trustnote-go/src/peers"
	"github.com/trustnote/trustnote-go/src/version"
)

// Node ties together the DAG store, the peer network, the hub forwarder and
// the composer. Its run loop keeps outbound connections open and pings idle
// peers.
type Node struct {
	state

	conf   *config.Config
	logger *logrus.Entry

	Store     dag.Store
	PeerStore peers.Store
	Network   *net.Network
	Hub       *hub.Hub

	composer     *dag.Composer
	peerSelector PeerSelector

	controlTimer *ControlTimer

	ctx        context.Context
	cancel     context.CancelFunc
	shutdownCh chan struct{}

	start time.Time
}

// NewNode returns a Node. Init must be called before Run.
func NewNode(conf *config.Config) *Node {
	ctx, cancel := context.WithCancel(context.Background())

	return &Node{
		conf:         conf,
		logger:       conf.Logger(),
		controlTimer: NewRandomControlTimer(),
		ctx:          ctx,
		cancel:       cancel,
		shutdownCh:   make(chan struct{}),
	}
}

// Init opens the stores, creates the network and records the configured
// witnesses.
func (n *Node) Init() error {
	if err := n.initStore(); err != nil {
		return err
	}

	if err := n.initHub(); err != nil {
		return err
	}

	n.initNetwork()

	if err := n.initWitnesses(); err != nil {
		return err
	}

	n.composer = dag.NewComposer(n.Store, nil, n.logger)
	n.peerSelector = NewRandomPeerSelector(n.conf.InitialPeers, n.PeerStore, n.conf.MyURL)

	n.setState(Connecting)
	n.start = time.Now()

	return nil
}

func (n *Node) initStore() error {
	if !n.conf.Store {
		if err := os.MkdirAll(n.conf.DataDir, 0700); err != nil {
			return err
		}

		n.Store = dag.NewInmemStore()
		n.PeerStore = peers.NewJSONPeers(n.conf.PeersFile())

		n.logger.Debug("created new in-mem store")

		return nil
	}

	n.logger.WithField("path", n.conf.DatabaseDir).Debug("Attempting to load or create database")

	store, err := dag.NewBadgerStore(n.conf.DatabaseDir, n.logger)
	if err != nil {
		return err
	}

	n.Store = store
	n.PeerStore = store

	return nil
}

func (n *Node) initHub() error {
	if n.conf.HubRealm == "" {
		return nil
	}

	h, err := hub.NewHub(n.conf.HubRealm, n.logger.WithField("component", "hub"))
	if err != nil {
		return err
	}

	n.Hub = h

	return nil
}

func (n *Node) initNetwork() {
	programVersion := n.conf.ProgramVersion
	if programVersion == "" {
		programVersion = version.Version
	}

	netConf := &net.Config{
		MyURL:            n.conf.MyURL,
		MaxInbound:       n.conf.MaxInbound,
		ResponseTimeout:  n.conf.ResponseTimeout,
		StalledTimeout:   n.conf.StalledTimeout,
		ConnectTimeout:   n.conf.ConnectTimeout,
		HeartbeatTimeout: n.conf.HeartbeatTimeout,
		DialRate:         n.conf.DialRate,
		Program:          n.conf.Program,
		ProgramVersion:   programVersion,
		Logger:           n.logger.Logger,
	}

	// a nil *hub.Hub must not become a non-nil interface
	var messenger net.HubMessenger
	if n.Hub != nil {
		messenger = n.Hub
	}

	n.Network = net.NewNetwork(netConf, n.Store, n.PeerStore, messenger)
}

// initWitnesses records the configured witness list unless the store already
// has one. Without either, the list is requested from the first peer.
func (n *Node) initWitnesses() error {
	witnesses, err := n.Store.ReadWitnesses()
	if err != nil {
		return err
	}

	if len(witnesses) > 0 {
		n.logger.WithField("witnesses", len(witnesses)).Debug("Loaded witnesses")
		return nil
	}

	if len(n.conf.Witnesses) == 0 {
		n.logger.Debug("No witnesses, will ask peers")
		return nil
	}

	if err := dag.ValidateWitnessList(n.conf.Witnesses); err != nil {
		return fmt.Errorf("configured witnesses: %v", err)
	}

	return n.Store.InsertWitnesses(n.conf.Witnesses)
}

// RunAsync calls Run in a separate goroutine.
func (n *Node) RunAsync() {
	go n.Run()
}

// Run serves inbound connections on BindAddr, if set, and maintains the
// outbound connections until Shutdown.
func (n *Node) Run() {
	if n.conf.BindAddr != "" {
		go func() {
			if err := n.Network.Listen(n.conf.BindAddr); err != nil {
				n.logger.WithError(err).Error("Listening")
			}
		}()
	}

	go n.controlTimer.Run(n.conf.HeartbeatTimeout)

	n.maintain()

	for {
		select {
		case <-n.controlTimer.tickCh:
			n.maintain()
		case <-n.shutdownCh:
			return
		}
	}
}

// maintain pings idle peers, opens outbound connections up to MaxOutbound and
// updates the state.
func (n *Node) maintain() {
	if n.getState() == Shutdown {
		return
	}

	n.Network.Heartbeat()

	outbound := n.Network.OutboundPeers()

	if len(outbound) > 0 {
		n.setState(Running)
	} else {
		n.setState(Connecting)
	}

	connected := make(map[string]bool)
	for _, p := range outbound {
		connected[p.URL] = true
	}

	for i := len(outbound); i < n.conf.MaxOutbound; i++ {
		url := n.peerSelector.Next(connected)
		if url == "" {
			break
		}
		connected[url] = true
		if !n.goFunc(func() { n.connectToPeer(url) }) {
			break
		}
	}

	n.logStats()
}

func (n *Node) connectToPeer(url string) {
	ctx, cancel := context.WithTimeout(n.ctx, n.conf.ConnectTimeout)
	defer cancel()

	p, err := n.Network.FindOutboundPeerOrConnect(ctx, url)
	if err != nil {
		n.logger.WithError(err).WithField("url", url).Debug("Connecting to peer")
		return
	}

	n.setState(Running)

	ctx, cancel = context.WithTimeout(n.ctx, n.conf.ResponseTimeout)
	defer cancel()

	if err := n.Network.InitWitnessesIfNecessary(ctx, p); err != nil {
		n.logger.WithError(err).WithField("url", url).Debug("Initializing witnesses")
	}
}

// ComposeParentsAndLastBall picks the parents and the last stable ball of a
// new unit posted with this node's witnesses.
func (n *Node) ComposeParentsAndLastBall() (*dag.Composition, error) {
	witnesses, err := n.Store.ReadWitnesses()
	if err != nil {
		return nil, err
	}

	return n.composer.PickParentUnitsAndLastBall(witnesses)
}

// Shutdown closes the network, the hub and the store.
func (n *Node) Shutdown() {
	if n.getState() != Shutdown {
		n.logger.Debug("Shutdown")

		n.setState(Shutdown)

		close(n.shutdownCh)
		n.cancel()

		n.controlTimer.Shutdown()

		n.Network.Close()

		n.waitRoutines()

		if n.Hub != nil {
			n.Hub.Close()
		}

		n.Store.Close()
	}
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	stats := n.Network.Stats()

	witnesses, _ := n.Store.ReadWitnesses()

	known := 0
	if ps, err := n.PeerStore.Peers(); err == nil {
		known = len(ps)
	}

	uptime := time.Since(n.start).Truncate(time.Second)

	return map[string]string{
		"state":            n.getState().String(),
		"inbound":          strconv.Itoa(stats.Inbound),
		"outbound":         strconv.Itoa(stats.Outbound),
		"connecting":       strconv.Itoa(stats.Connecting),
		"known_peers":      strconv.Itoa(known),
		"witnesses":        strconv.Itoa(len(witnesses)),
		"uptime":           uptime.String(),
		"protocol_version": version.ProtocolVersion,
		"alt":              version.Alt,
		"version":          version.Version,
	}
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"state":      stats["state"],
		"inbound":    stats["inbound"],
		"outbound":   stats["outbound"],
		"connecting": stats["connecting"],
		"witnesses":  stats["witnesses"],
	}).Debug("Stats")
}

// GetState returns the current state.
func (n *Node) GetState() State {
	return n.getState()
}

// GetPeers returns the recorded peers.
func (n *Node) GetPeers() ([]*peers.Peer, error) {
	return n.PeerStore.Peers()
}

// GetOutboundURLs returns the URLs of the open outbound connections.
func (n *Node) GetOutboundURLs() []string {
	res := []string{}
	for _, p := range n.Network.OutboundPeers() {
		res = append(res, p.URL)
	}
	return res
}
