package net

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind is the first element of a frame.
type Kind string

const (
	// KindNotify frames are fire-and-forget.
	KindNotify Kind = "notify"
	// KindRequest frames expect a response with the same tag.
	KindRequest Kind = "request"
	// KindResponse frames answer a request.
	KindResponse Kind = "response"

	// kindJustSaying is the legacy name of KindNotify.
	kindJustSaying Kind = "justsaying"
)

// Notify is the payload of a notify frame.
type Notify struct {
	Subject string          `json:"subject"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// Request is the payload of a request frame.
type Request struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params,omitempty"`
	Tag     string          `json:"tag"`
}

// Response is the payload of a response frame. Err is set locally when the
// request failed, either because the peer answered with an error body or
// because of an internal error like ErrResponseTimeout.
type Response struct {
	Tag  string          `json:"tag"`
	Body json.RawMessage `json:"response,omitempty"`
	Err  error           `json:"-"`
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v interface{}) error {
	if r.Err != nil {
		return r.Err
	}
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// VersionBody is the body of the version notification.
type VersionBody struct {
	ProtocolVersion string `json:"protocol_version"`
	Alt             string `json:"alt"`
	Library         string `json:"library"`
	LibraryVersion  string `json:"library_version"`
	Program         string `json:"program"`
	ProgramVersion  string `json:"program_version"`
}

type errorBody struct {
	Error *string `json:"error"`
}

// remoteError returns a RemoteError if body is an object with an error field.
func remoteError(body json.RawMessage) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == nil {
		return nil
	}
	return &RemoteError{Message: *eb.Error}
}

func encodeFrame(kind Kind, payload interface{}) ([]byte, error) {
	return json.Marshal([]interface{}{kind, payload})
}

// decodeFrame splits a frame into its kind and raw payload.
func decodeFrame(data []byte) (Kind, json.RawMessage, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(frame) != 2 {
		return "", nil, fmt.Errorf("%w: %d elements", ErrMalformedFrame, len(frame))
	}

	var kind Kind
	if err := json.Unmarshal(frame[0], &kind); err != nil {
		return "", nil, fmt.Errorf("%w: kind: %v", ErrMalformedFrame, err)
	}
	if kind == kindJustSaying {
		kind = KindNotify
	}

	return kind, frame[1], nil
}
