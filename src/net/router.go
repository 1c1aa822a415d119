package net

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/version"
)

// handleMessage decodes a frame and dispatches it by kind. Malformed frames
// are logged and dropped; the connection stays open.
func (n *Network) handleMessage(p *Peer, data []byte) {
	n.mu.Lock()
	if p.closed {
		n.mu.Unlock()
		return
	}
	p.lastActivity = time.Now()
	n.mu.Unlock()

	kind, payload, err := decodeFrame(data)
	if err != nil {
		p.logger.WithError(err).Debug("Dropping frame")
		return
	}

	switch kind {
	case KindNotify:
		var nt Notify
		if err := json.Unmarshal(payload, &nt); err != nil || nt.Subject == "" {
			p.logger.WithField("payload", string(payload)).Debug("Dropping malformed notify")
			return
		}
		n.handleNotify(p, &nt)
	case KindRequest:
		var req Request
		if err := json.Unmarshal(payload, &req); err != nil || req.Tag == "" || req.Command == "" {
			p.logger.WithField("payload", string(payload)).Debug("Dropping malformed request")
			return
		}
		n.handleRequest(p, &req)
	case KindResponse:
		var resp Response
		if err := json.Unmarshal(payload, &resp); err != nil || resp.Tag == "" {
			p.logger.WithField("payload", string(payload)).Debug("Dropping malformed response")
			return
		}
		n.handleResponse(p, &resp)
	default:
		p.logger.WithField("kind", kind).Debug("Unknown message kind")
	}
}

func (n *Network) handleNotify(p *Peer, nt *Notify) {
	logger := p.logger.WithField("subject", nt.Subject)

	switch nt.Subject {
	case "version":
		if len(nt.Body) == 0 {
			return
		}
		var v VersionBody
		if err := json.Unmarshal(nt.Body, &v); err != nil {
			logger.WithError(err).Debug("Bad version body")
			return
		}
		if v.ProtocolVersion != version.ProtocolVersion {
			n.SendError(p, fmt.Sprintf("Incompatible versions, mine %s, yours %s", version.ProtocolVersion, v.ProtocolVersion))
			n.closePeer(p, ErrProtocolIncompatible)
			return
		}
		if v.Alt != version.Alt {
			n.SendError(p, fmt.Sprintf("Incompatible alts, mine %s, yours %s", version.Alt, v.Alt))
			n.closePeer(p, ErrProtocolIncompatible)
			return
		}
		n.mu.Lock()
		p.version = &v
		n.mu.Unlock()
		logger.WithFields(logrus.Fields{
			"library_version": v.LibraryVersion,
			"program":         v.Program,
		}).Debug("Peer version")

	case "error":
		logger.WithField("body", string(nt.Body)).Warn("Error from peer")

	case "info":
		// ignored

	case "my_url":
		var u string
		if err := json.Unmarshal(nt.Body, &u); err != nil || u == "" {
			return
		}
		n.addPeer(u)

	case "hub/challenge", "hub/message", "hub/message_box_status":
		if len(nt.Body) == 0 || n.hub == nil {
			return
		}
		n.hub.MessageFromHub(p, nt.Subject, nt.Body)

	case "hub/push_project_number":
		if len(nt.Body) == 0 || n.hub == nil {
			return
		}
		n.mu.Lock()
		ok := p.loggingIn || p.loggedIn
		n.mu.Unlock()
		if ok {
			n.hub.ReceivedPushProjectNumber(p, nt.Body)
		}

	default:
		logger.Debug("Unhandled notify")
	}
}

// handleRequest dispatches a request to its command handler. A request whose
// tag is already being answered on this connection is ignored.
func (n *Network) handleRequest(p *Peer, req *Request) {
	n.mu.Lock()
	if p.inPreparing[req.Tag] {
		n.mu.Unlock()
		p.logger.WithField("command", req.Command).Debug("Ignoring identical request")
		return
	}
	p.inPreparing[req.Tag] = true
	n.mu.Unlock()

	rpc := &RPC{
		Peer:    p,
		Request: req,
		network: n,
	}

	handler, ok := n.commandHandler(req.Command)
	if !ok {
		p.logger.WithField("command", req.Command).Debug("Unhandled request")
		rpc.Respond(nil, fmt.Errorf("unrecognized command %s", req.Command))
		return
	}

	go handler(rpc)
}
