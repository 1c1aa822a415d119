package net

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	kind, payload, err := decodeFrame([]byte(`["justsaying",{"subject":"info","body":"hi"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindNotify {
		t.Fatalf("kind should be %s, not %s", KindNotify, kind)
	}

	var nt Notify
	if err := json.Unmarshal(payload, &nt); err != nil {
		t.Fatal(err)
	}
	if nt.Subject != "info" || string(nt.Body) != `"hi"` {
		t.Fatalf("wrong notify %#v", nt)
	}

	kind, _, err = decodeFrame([]byte(`["request",{"command":"heartbeat","tag":"abc"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindRequest {
		t.Fatalf("kind should be %s, not %s", KindRequest, kind)
	}
}

func TestDecodeMalformedFrame(t *testing.T) {
	frames := []string{
		`garbage`,
		`{"subject":"version"}`,
		`["notify"]`,
		`["notify",{},{}]`,
		`[1,{}]`,
	}

	for _, f := range frames {
		if _, _, err := decodeFrame([]byte(f)); !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("%s: expected ErrMalformedFrame, got %v", f, err)
		}
	}
}

func TestEncodeFrame(t *testing.T) {
	data, err := encodeFrame(KindResponse, &Response{Tag: "t", Body: json.RawMessage(`[1,2]`)})
	if err != nil {
		t.Fatal(err)
	}

	expected := `["response",{"tag":"t","response":[1,2]}]`
	if string(data) != expected {
		t.Fatalf("frame should be %s, not %s", expected, data)
	}
}

func TestRemoteError(t *testing.T) {
	cases := []struct {
		body string
		msg  string
	}{
		{`{"error":"unrecognized command foo"}`, "unrecognized command foo"},
		{`{"error":""}`, ""},
		{` {"error":"x","extra":1}`, "x"},
	}

	for _, c := range cases {
		err := remoteError(json.RawMessage(c.body))
		var re *RemoteError
		if !errors.As(err, &re) {
			t.Fatalf("%s: expected RemoteError, got %v", c.body, err)
		}
		if re.Message != c.msg {
			t.Fatalf("%s: message should be %q, not %q", c.body, c.msg, re.Message)
		}
	}

	for _, body := range []string{``, `null`, `"error"`, `["error"]`, `{"result":"error"}`} {
		if err := remoteError(json.RawMessage(body)); err != nil {
			t.Fatalf("%s: expected no error, got %v", body, err)
		}
	}
}

func TestResponseDecode(t *testing.T) {
	resp := &Response{Body: json.RawMessage(`["a","b"]`)}

	var res []string
	if err := resp.Decode(&res); err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0] != "a" || res[1] != "b" {
		t.Fatalf("wrong result %v", res)
	}

	resp = &Response{Err: ErrResponseTimeout}
	if err := resp.Decode(&res); err != ErrResponseTimeout {
		t.Fatalf("expected ErrResponseTimeout, got %v", err)
	}
}

func expectedTag(canonical string) string {
	hash := sha256.Sum256([]byte(canonical))
	return base64.StdEncoding.EncodeToString(hash[:])
}

func TestRequestTag(t *testing.T) {
	tag, err := RequestTag("heartbeat", nil)
	if err != nil {
		t.Fatal(err)
	}
	if e := expectedTag(`{"command":"heartbeat"}`); tag != e {
		t.Fatalf("tag should be %s, not %s", e, tag)
	}

	tag, err = RequestTag("get_joint", "abc")
	if err != nil {
		t.Fatal(err)
	}
	if e := expectedTag(`{"command":"get_joint","params":"abc"}`); tag != e {
		t.Fatalf("tag should be %s, not %s", e, tag)
	}
}

func TestRequestTagCanonical(t *testing.T) {
	type params struct {
		Witnesses string `json:"witnesses"`
		Address   string `json:"address"`
	}

	fromStruct, err := RequestTag("light/get_history", params{Witnesses: "w", Address: "a"})
	if err != nil {
		t.Fatal(err)
	}

	fromMap, err := RequestTag("light/get_history", map[string]string{"address": "a", "witnesses": "w"})
	if err != nil {
		t.Fatal(err)
	}

	fromRaw, err := RequestTag("light/get_history", json.RawMessage(`{"witnesses":"w","address":"a"}`))
	if err != nil {
		t.Fatal(err)
	}

	if fromStruct != fromMap || fromMap != fromRaw {
		t.Fatalf("equal params should give equal tags: %s %s %s", fromStruct, fromMap, fromRaw)
	}

	if e := expectedTag(`{"command":"light/get_history","params":{"address":"a","witnesses":"w"}}`); fromMap != e {
		t.Fatalf("tag should be %s, not %s", e, fromMap)
	}

	other, err := RequestTag("light/get_history", map[string]string{"address": "b", "witnesses": "w"})
	if err != nil {
		t.Fatal(err)
	}
	if other == fromMap {
		t.Fatal("different params should give different tags")
	}

	otherCommand, err := RequestTag("get_history", map[string]string{"address": "a", "witnesses": "w"})
	if err != nil {
		t.Fatal(err)
	}
	if otherCommand == fromMap {
		t.Fatal("different commands should give different tags")
	}
}
