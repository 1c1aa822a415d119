package hub

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/common"
	"github.com/trustnote/trustnote-go/src/net"
)

func initHub(t *testing.T) *Hub {
	h, err := NewHub("trustnote.test", common.NewTestEntry(t, logrus.ErrorLevel))
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// initPeers connects a client network to a network forwarding hub
// notifications to h. It returns the client's outbound peer and the server's
// inbound peer.
func initPeers(t *testing.T, h *Hub) (client *net.Network, out *net.Peer, in *net.Peer, cleanup func()) {
	server := net.NewNetwork(net.TestConfig(t, logrus.ErrorLevel), nil, nil, h)
	srv := httptest.NewServer(server)

	client = net.NewNetwork(net.TestConfig(t, logrus.ErrorLevel), nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out, err := client.Connect(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for len(server.InboundPeers()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for inbound peer")
		}
		time.Sleep(10 * time.Millisecond)
	}
	in = server.InboundPeers()[0]

	cleanup = func() {
		client.Close()
		server.Close()
		srv.Close()
	}

	return client, out, in, cleanup
}

func expectEvent(t *testing.T, ch chan Event) Event {
	select {
	case ev := <-ch:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for hub event")
	}
	return Event{}
}

func TestTopic(t *testing.T) {
	h := initHub(t)
	defer h.Close()

	if topic := h.Topic(SubjectMessageBoxStatus); topic != "trustnote.test.message_box_status" {
		t.Fatalf("wrong topic %s", topic)
	}
}

func TestForwardMessage(t *testing.T) {
	h := initHub(t)
	defer h.Close()

	events := make(chan Event, 10)
	for _, s := range []string{SubjectChallenge, SubjectMessage} {
		if err := h.Subscribe(s, func(ev Event) { events <- ev }); err != nil {
			t.Fatal(err)
		}
	}

	client, out, in, cleanup := initPeers(t, h)
	defer cleanup()

	if err := client.SendNotify(out, SubjectMessage, map[string]string{"message_hash": "abc"}); err != nil {
		t.Fatal(err)
	}

	ev := expectEvent(t, events)
	if ev.Subject != SubjectMessage {
		t.Fatalf("subject should be %s, not %s", SubjectMessage, ev.Subject)
	}
	if ev.Peer != in.Key() {
		t.Fatalf("peer should be %s, not %s", in.Key(), ev.Peer)
	}
	if string(ev.Body) != `{"message_hash":"abc"}` {
		t.Fatalf("wrong body %s", ev.Body)
	}

	if err := client.SendNotify(out, SubjectChallenge, "xyz"); err != nil {
		t.Fatal(err)
	}

	ev = expectEvent(t, events)
	if ev.Subject != SubjectChallenge || string(ev.Body) != `"xyz"` {
		t.Fatalf("wrong event %#v", ev)
	}
}

func TestPushProjectNumber(t *testing.T) {
	h := initHub(t)
	defer h.Close()

	events := make(chan Event, 10)
	if err := h.Subscribe(SubjectPushProjectNumber, func(ev Event) { events <- ev }); err != nil {
		t.Fatal(err)
	}

	client, out, in, cleanup := initPeers(t, h)
	defer cleanup()

	// ignored from a peer we are not logging in to
	if err := client.SendNotify(out, SubjectPushProjectNumber, map[string]int{"projectNumber": 1}); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(200 * time.Millisecond):
	}

	in.SetLoggingIn(true)

	if err := client.SendNotify(out, SubjectPushProjectNumber, map[string]int{"projectNumber": 2}); err != nil {
		t.Fatal(err)
	}

	ev := expectEvent(t, events)
	if string(ev.Body) != `{"projectNumber":2}` {
		t.Fatalf("wrong body %s", ev.Body)
	}
}

func TestDecodeEvent(t *testing.T) {
	if _, err := decodeEvent(nil); err == nil {
		t.Fatal("an empty event should not decode")
	}

	ev, err := decodeEvent([]interface{}{"inbound-1", SubjectMessage, `{}`})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Peer != "inbound-1" || ev.Subject != SubjectMessage || string(ev.Body) != "{}" {
		t.Fatalf("wrong event %#v", ev)
	}
}
