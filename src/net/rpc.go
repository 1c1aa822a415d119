package net

import (
	"encoding/json"
	"sync"
)

// CommandHandler answers a request through rpc.Respond. It runs in its own
// goroutine.
type CommandHandler func(rpc *RPC)

// RPC encapsulates a request received from a peer and provides a response
// mechanism.
type RPC struct {
	Peer    *Peer
	Request *Request

	network *Network
	once    sync.Once
}

// Respond is used to respond with a response or an error. Only the first call
// has an effect.
func (r *RPC) Respond(resp interface{}, err error) {
	r.once.Do(func() {
		r.network.sendResponse(r.Peer, r.Request.Tag, resp, err)
	})
}

// DecodeParams unmarshals the request params into v.
func (r *RPC) DecodeParams(v interface{}) error {
	if len(r.Request.Params) == 0 {
		return nil
	}
	return json.Unmarshal(r.Request.Params, v)
}

// RegisterCommand installs the handler of a request command, replacing any
// previous one.
func (n *Network) RegisterCommand(command string, handler CommandHandler) {
	n.commandsLock.Lock()
	defer n.commandsLock.Unlock()
	n.commands[command] = handler
}

func (n *Network) commandHandler(command string) (CommandHandler, bool) {
	n.commandsLock.RLock()
	defer n.commandsLock.RUnlock()
	h, ok := n.commands[command]
	return h, ok
}

func (n *Network) sendResponse(p *Peer, tag string, resp interface{}, respErr error) {
	n.mu.Lock()
	delete(p.inPreparing, tag)
	n.mu.Unlock()

	payload := struct {
		Tag      string      `json:"tag"`
		Response interface{} `json:"response,omitempty"`
	}{Tag: tag, Response: resp}

	if respErr != nil {
		payload.Response = map[string]string{"error": respErr.Error()}
	}

	data, err := encodeFrame(KindResponse, payload)
	if err != nil {
		p.logger.WithError(err).Error("Encoding response")
		return
	}

	p.send(data)
}
