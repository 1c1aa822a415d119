package net

import "context"

// ResponsePromise turns a ResponseHandler into a channel.
type ResponsePromise struct {
	RespCh chan *Response
}

// NewResponsePromise ...
func NewResponsePromise() *ResponsePromise {
	return &ResponsePromise{
		// buffered so that the handler never blocks if the caller gave up
		RespCh: make(chan *Response, 1),
	}
}

// Respond is a ResponseHandler.
func (rp *ResponsePromise) Respond(p *Peer, req *Request, resp *Response) {
	select {
	case rp.RespCh <- resp:
	default:
	}
}

// Request sends a request and waits for its response. The error is the
// Response's Err: a RemoteError, ErrResponseTimeout or ErrConnectionClosed.
// Cancelling ctx stops the wait, not the request.
func (n *Network) Request(ctx context.Context,
	p *Peer,
	command string,
	params interface{},
	reroutable bool) (*Response, error) {

	promise := NewResponsePromise()

	if err := n.SendRequest(p, command, params, reroutable, promise.Respond); err != nil {
		return nil, err
	}

	select {
	case resp := <-promise.RespCh:
		return resp, resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
