package net

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/ugorji/go/codec"
)

// RequestTag computes the tag of a request: the base64 SHA-256 of the
// canonical JSON encoding of {command, params}. params is omitted when nil.
// Equal params give equal tags whatever their Go type or key order.
func RequestTag(command string, params interface{}) (string, error) {
	request := map[string]interface{}{
		"command": command,
	}

	if params != nil {
		normalized, err := normalize(params)
		if err != nil {
			return "", err
		}
		if normalized != nil {
			request["params"] = normalized
		}
	}

	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(request); err != nil {
		return "", err
	}

	hash := sha256.Sum256(b.Bytes())
	return base64.StdEncoding.EncodeToString(hash[:]), nil
}

// normalize turns params into plain maps, slices, strings, float64 and bools
// so that structs and maps holding the same data encode identically.
func normalize(params interface{}) (interface{}, error) {
	var raw []byte
	switch p := params.(type) {
	case json.RawMessage:
		raw = p
	default:
		var err error
		if raw, err = json.Marshal(params); err != nil {
			return nil, err
		}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var res interface{}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return res, nil
}
