// Package service exposes a node over HTTP:
//
//  /stats    connection counts, witnesses and state
//  /peers    recorded peers and open outbound connections
//  /parents  parents and last stable ball for a new unit
//  /wamp     WAMP endpoint of the hub, when the node runs one
package service
