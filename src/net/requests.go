package net

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// ResponseHandler is called once with the response to a request, or with a
// Response whose Err is set when the request failed.
type ResponseHandler func(p *Peer, req *Request, resp *Response)

// responders are the handlers waiting for one logical request. Copies of a
// rerouted request on several peers share the same responders, which are
// resolved at most once.
type responders struct {
	handlers []ResponseHandler
	resolved bool
}

func (r *responders) add(h ResponseHandler) {
	r.handlers = append(r.handlers, h)
}

// resolve returns the handlers to call, or nil if it already happened.
func (r *responders) resolve() []ResponseHandler {
	if r.resolved {
		return nil
	}
	r.resolved = true
	return r.handlers
}

// pendingRequest is a request sent to one peer and not answered yet.
type pendingRequest struct {
	request      *Request
	responders   *responders
	reroute      func() bool
	rerouted     bool
	rerouteTimer *time.Timer
	cancelTimer  *time.Timer
}

func (pr *pendingRequest) stopTimers() {
	if pr.rerouteTimer != nil {
		pr.rerouteTimer.Stop()
	}
	if pr.cancelTimer != nil {
		pr.cancelTimer.Stop()
	}
}

// SendRequest sends a request to p and calls handler with the response. A
// request identical to one already waiting on p is not sent again; handler
// is added to the waiting ones. Identical requests must agree on reroutable.
func (n *Network) SendRequest(p *Peer,
	command string,
	params interface{},
	reroutable bool,
	handler ResponseHandler) error {

	tag, err := RequestTag(command, params)
	if err != nil {
		return err
	}

	raw, err := marshalParams(params)
	if err != nil {
		return err
	}

	req := &Request{
		Command: command,
		Params:  raw,
		Tag:     tag,
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if p.closed {
		n.fire(p, req, []ResponseHandler{handler}, &Response{Tag: tag, Err: ErrConnectionClosed})
		return nil
	}

	if pr, ok := p.pending[tag]; ok {
		p.logger.WithField("command", command).Debug("Request already sent, adding a response handler")
		pr.responders.add(handler)
		return nil
	}

	n.sendRequestLocked(p, req, reroutable, &responders{handlers: []ResponseHandler{handler}})

	return nil
}

func marshalParams(params interface{}) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(params)
}

// sendRequestLocked registers and transmits a request. The caller holds the
// network lock and checked that p has no pending request with this tag.
func (n *Network) sendRequestLocked(p *Peer, req *Request, reroutable bool, rs *responders) {
	tag := req.Tag

	pr := &pendingRequest{
		request:    req,
		responders: rs,
	}

	if reroutable {
		pr.reroute = func() bool {
			return n.rerouteLocked(p, tag)
		}
		pr.rerouteTimer = time.AfterFunc(n.conf.StalledTimeout, func() {
			n.onStalled(p, tag, pr)
		})
	} else {
		pr.cancelTimer = time.AfterFunc(n.conf.ResponseTimeout, func() {
			n.onTimeout(p, tag, pr)
		})
	}

	p.pending[tag] = pr

	data, err := encodeFrame(KindRequest, req)
	if err != nil {
		p.logger.WithError(err).Error("Encoding request")
		return
	}

	p.logger.WithFields(logrus.Fields{
		"command":    req.Command,
		"tag":        tag,
		"reroutable": reroutable,
	}).Debug("Sending request")

	p.send(data)
}

func (n *Network) onTimeout(p *Peer, tag string, pr *pendingRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if p.pending[tag] != pr {
		return
	}

	p.logger.WithField("command", pr.request.Command).Debug("Response timeout")

	pr.stopTimers()
	delete(p.pending, tag)

	n.fire(p, pr.request, pr.responders.resolve(), &Response{Tag: tag, Err: ErrResponseTimeout})
}

func (n *Network) onStalled(p *Peer, tag string, pr *pendingRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if p.pending[tag] != pr || pr.rerouted {
		return
	}

	p.logger.WithField("command", pr.request.Command).Debug("Request stalled, rerouting")

	n.rerouteLocked(p, tag)
}

// handleResponse resolves the request answered by resp. If the request was
// rerouted, its copies on the other peers are dropped.
func (n *Network) handleResponse(p *Peer, resp *Response) {
	n.mu.Lock()

	pr, ok := p.pending[resp.Tag]
	if !ok {
		n.mu.Unlock()
		// timed out, or answered by another peer
		p.logger.WithField("tag", resp.Tag).Debug("No request by tag")
		return
	}

	pr.stopTimers()
	delete(p.pending, resp.Tag)
	n.dropRerouted(resp.Tag, pr.responders)

	handlers := pr.responders.resolve()

	n.mu.Unlock()

	resp.Err = remoteError(resp.Body)
	n.fire(p, pr.request, handlers, resp)
}

// dropRerouted removes the copies of a rerouted request from the peers it was
// sent to. The caller holds the network lock.
func (n *Network) dropRerouted(tag string, rs *responders) {
	others, ok := n.rerouted[tag]
	if !ok {
		return
	}

	for _, q := range others {
		if qr, ok := q.pending[tag]; ok && qr.responders == rs {
			qr.stopTimers()
			delete(q.pending, tag)
		}
	}

	delete(n.rerouted, tag)
}

// cancelRequestsOnClosedConnection reroutes the reroutable requests pending on
// a closed connection and fails the others. A reroutable request still
// waiting on another open peer is left to that peer. The caller holds the
// network lock.
func (n *Network) cancelRequestsOnClosedConnection(p *Peer) {
	for tag, pr := range p.pending {
		pr.stopTimers()

		if pr.reroute != nil {
			if n.hasLiveCopy(p, tag, pr.responders) {
				delete(p.pending, tag)
				n.forgetRerouted(tag, p)
				continue
			}

			pr.rerouted = false
			if pr.reroute() {
				continue
			}
		}

		delete(p.pending, tag)
		n.dropRerouted(tag, pr.responders)

		n.fire(p, pr.request, pr.responders.resolve(), &Response{Tag: tag, Err: ErrConnectionClosed})
	}
}

// hasLiveCopy reports whether a copy of the request rerouted under tag is
// still pending on an open peer other than p. The caller holds the network
// lock.
func (n *Network) hasLiveCopy(p *Peer, tag string, rs *responders) bool {
	for _, q := range n.rerouted[tag] {
		if q == p || q.closed {
			continue
		}
		if qr, ok := q.pending[tag]; ok && qr.responders == rs {
			return true
		}
	}
	return false
}

// forgetRerouted removes p from the peers a request was rerouted to. The
// caller holds the network lock.
func (n *Network) forgetRerouted(tag string, p *Peer) {
	others := n.rerouted[tag]
	kept := make([]*Peer, 0, len(others))
	for _, q := range others {
		if q != p {
			kept = append(kept, q)
		}
	}
	n.rerouted[tag] = kept
}

// fire calls handlers in order, in a new goroutine, so that they never run
// with the network lock held.
func (n *Network) fire(p *Peer, req *Request, handlers []ResponseHandler, resp *Response) {
	if len(handlers) == 0 {
		return
	}

	go func() {
		for _, h := range handlers {
			h(p, req, resp)
		}
	}()
}
