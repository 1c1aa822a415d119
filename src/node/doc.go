// Package node assembles a TrustNote node: the DAG store, the peer network,
// the hub forwarder and the composer of new units.
//
// A node starts in the Connecting state and dials the peers it knows, from the
// configuration and from the peer store, until MaxOutbound connections are
// open. It is then Running. A ControlTimer ticks every HeartbeatTimeout to
// ping idle peers, drop silent ones and replace lost connections.
//
// Witnesses
//
// The witness list comes from the store, or from the configuration on first
// start. A node without either asks the first peer it connects to with a
// get_witnesses request.
//
// Composition
//
// ComposeParentsAndLastBall reads the node's witnesses and returns the free
// units a new unit should reference together with the last stable ball it may
// cite. The work is done by dag.Composer on a consistent store snapshot.
package node
