package net

import (
	"context"
	"errors"
	"sort"
)

var (
	errNoSubscriptions = errors.New("this node does not accept subscriptions")
	errNoWitnesses     = errors.New("no witnesses")
)

func (n *Network) registerBuiltinCommands() {
	n.commands["heartbeat"] = n.heartbeatCommand
	n.commands["get_witnesses"] = n.getWitnessesCommand
	n.commands["get_peers"] = n.getPeersCommand
	n.commands["subscribe"] = n.subscribeCommand
}

func (n *Network) heartbeatCommand(rpc *RPC) {
	rpc.Respond(nil, nil)
}

func (n *Network) getWitnessesCommand(rpc *RPC) {
	if n.witnesses == nil {
		rpc.Respond(nil, errNoWitnesses)
		return
	}

	witnesses, err := n.witnesses.ReadWitnesses()
	if err != nil {
		rpc.Respond(nil, err)
		return
	}
	if len(witnesses) == 0 {
		rpc.Respond(nil, errNoWitnesses)
		return
	}

	rpc.Respond(witnesses, nil)
}

func (n *Network) getPeersCommand(rpc *RPC) {
	urls := []string{}
	for _, p := range n.OutboundPeers() {
		urls = append(urls, p.URL)
	}
	sort.Strings(urls)
	rpc.Respond(urls, nil)
}

func (n *Network) subscribeCommand(rpc *RPC) {
	rpc.Respond(nil, errNoSubscriptions)
}

// InitWitnessesIfNecessary asks p for its witnesses when this node has none
// yet, and records them.
func (n *Network) InitWitnessesIfNecessary(ctx context.Context, p *Peer) error {
	if n.witnesses == nil {
		return nil
	}

	witnesses, err := n.witnesses.ReadWitnesses()
	if err != nil {
		return err
	}
	if len(witnesses) > 0 {
		return nil
	}

	resp, err := n.Request(ctx, p, "get_witnesses", nil, false)
	if err != nil {
		p.logger.WithError(err).Debug("get_witnesses failed")
		return err
	}

	if err := resp.Decode(&witnesses); err != nil {
		return err
	}
	if len(witnesses) == 0 {
		return errNoWitnesses
	}

	return n.witnesses.InsertWitnesses(witnesses)
}
