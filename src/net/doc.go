// Package net implements the peer protocol of a node: websocket connections to
// other nodes and the request/response engine running on top of them.
//
// Every message is one JSON frame [kind, payload], where kind is one of
// "notify", "request" or "response". Older nodes call notifications
// "justsaying"; both names are accepted.
//
// Connections
//
// The Network keeps one canonical connection per outbound URL. If a connect
// attempt is abandoned after ConnectTimeout but still succeeds later, the
// second socket is closed as a duplicate and callers get the first one.
// Inbound connections come through Network.ServeHTTP. Both sides start with a
// version notification; a node with another protocol version or alt receives
// an error notification and is disconnected.
//
// Requests
//
// A request is identified by its tag, the base64 SHA-256 of the canonical JSON
// of its command and params. Identical requests sent to the same peer before
// it answers share one wire transmission; their handlers all fire, in
// registration order, when the response arrives.
//
// Non-reroutable requests fail with ErrResponseTimeout after ResponseTimeout.
// Reroutable requests have no hard timeout. When they stall for
// StalledTimeout, or when their connection closes, they are sent to another
// peer chosen on a consistent hash ring keyed by the tag. The first peer to
// answer wins; the copies pending on the other peers are dropped without
// calling their handlers again. When a connection closes, each of its pending
// requests is either rerouted or failed with ErrConnectionClosed.
//
// Concurrency
//
// Socket reads and writes run in two goroutines per peer. The registry, the
// pending tables and the rerouted index are only touched with the network
// lock held. Response handlers and command handlers run outside the lock.
package net
