package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gammazero/nexus/v3/client"
	"github.com/gammazero/nexus/v3/router"
	"github.com/gammazero/nexus/v3/wamp"
	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/net"
)

// Subjects of the notifications forwarded by the Hub.
const (
	SubjectChallenge         = "hub/challenge"
	SubjectMessage           = "hub/message"
	SubjectMessageBoxStatus  = "hub/message_box_status"
	SubjectPushProjectNumber = "hub/push_project_number"
)

// Event is a hub notification received from a peer.
type Event struct {
	Peer    string
	Subject string
	Body    json.RawMessage
}

// Hub implements net.HubMessenger. It publishes the hub notifications received
// from peers on a WAMP realm, where local applications subscribe to them.
type Hub struct {
	realm      string
	router     router.Router
	publisher  *client.Client
	subscriber *client.Client
	logger     *logrus.Entry
}

// NewHub starts an embedded WAMP router serving realm.
func NewHub(realm string, logger *logrus.Entry) (*Hub, error) {
	routerConfig := &router.Config{
		RealmConfigs: []*router.RealmConfig{
			&router.RealmConfig{
				URI:           wamp.URI(realm),
				AnonymousAuth: true,
			},
		},
	}

	nxr, err := router.NewRouter(routerConfig, logger)
	if err != nil {
		return nil, err
	}

	cfg := client.Config{
		Realm:  realm,
		Logger: logger,
	}

	publisher, err := client.ConnectLocal(nxr, cfg)
	if err != nil {
		nxr.Close()
		return nil, err
	}

	subscriber, err := client.ConnectLocal(nxr, cfg)
	if err != nil {
		publisher.Close()
		nxr.Close()
		return nil, err
	}

	return &Hub{
		realm:      realm,
		router:     nxr,
		publisher:  publisher,
		subscriber: subscriber,
		logger:     logger,
	}, nil
}

// Topic returns the WAMP topic of a notification subject, like
// "trustnote.hub.message" for "hub/message" on realm "trustnote.hub".
func (h *Hub) Topic(subject string) string {
	subject = strings.TrimPrefix(subject, "hub/")
	return fmt.Sprintf("%s.%s", h.realm, subject)
}

// MessageFromHub implements net.HubMessenger.
func (h *Hub) MessageFromHub(p *net.Peer, subject string, body []byte) {
	h.publish(p, subject, body)
}

// ReceivedPushProjectNumber implements net.HubMessenger. The peer is then
// considered logged in.
func (h *Hub) ReceivedPushProjectNumber(p *net.Peer, body []byte) {
	p.SetLoggingIn(false)
	p.SetLoggedIn(true)

	h.publish(p, SubjectPushProjectNumber, body)
}

func (h *Hub) publish(p *net.Peer, subject string, body []byte) {
	topic := h.Topic(subject)

	args := wamp.List{p.Key(), subject, string(body)}
	if err := h.publisher.Publish(topic, nil, args, nil); err != nil {
		h.logger.WithError(err).WithField("topic", topic).Error("Publishing hub event")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"topic": topic,
		"peer":  p.Key(),
	}).Debug("Published hub event")
}

// Subscribe calls fn with the events of a subject.
func (h *Hub) Subscribe(subject string, fn func(Event)) error {
	return h.subscriber.Subscribe(h.Topic(subject), func(event *wamp.Event) {
		ev, err := decodeEvent(event.Arguments)
		if err != nil {
			h.logger.WithError(err).Debug("Bad hub event")
			return
		}
		fn(ev)
	}, nil)
}

func decodeEvent(args wamp.List) (Event, error) {
	if len(args) != 3 {
		return Event{}, fmt.Errorf("event should contain 3 arguments, not %d", len(args))
	}

	peer, ok := wamp.AsString(args[0])
	if !ok {
		return Event{}, fmt.Errorf("error reading event peer")
	}
	subject, ok := wamp.AsString(args[1])
	if !ok {
		return Event{}, fmt.Errorf("error reading event subject")
	}
	body, ok := wamp.AsString(args[2])
	if !ok {
		return Event{}, fmt.Errorf("error reading event body")
	}

	return Event{
		Peer:    peer,
		Subject: subject,
		Body:    json.RawMessage(body),
	}, nil
}

// Handler returns a websocket endpoint through which remote WAMP clients join
// the realm.
func (h *Hub) Handler() http.Handler {
	return router.NewWebsocketServer(h.router)
}

// Close disconnects the local sessions and stops the router.
func (h *Hub) Close() error {
	h.subscriber.Close()
	err := h.publisher.Close()
	h.router.Close()
	return err
}
