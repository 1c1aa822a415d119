// Package peers keeps track of the peer URLs a node has learned about.
//
// A peer is identified by the websocket URL it can be reached at. Its host,
// the part of the URL between the scheme and the port or path, is recorded
// alongside it so that peers sharing a host can be grouped. Persistence is best
// effort: nothing on the consensus path depends on a URL having been written.
//
// Two Store implementations live here. JSONPeers keeps the list in a
// human-editable JSON file in the data directory, and StaticPeers keeps it in
// memory. The badger-backed DAG store in the dag package also implements Store.
package peers
