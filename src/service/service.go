package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/dag"
	"github.com/trustnote/trustnote-go/src/node"
	"github.com/trustnote/trustnote-go/src/peers"
)

// Service serves the HTTP API of a node.
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	mux         *http.ServeMux
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n *node.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers on the service's own mux. The
// hub's WAMP endpoint is mounted on /wamp when the node has a hub.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	s.mux.HandleFunc("/parents", s.makeHandler(s.GetParents))
	if s.node.Hub != nil {
		s.mux.Handle("/wamp", s.node.Hub.Handler())
	}
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving API")

	err := http.ListenAndServe(s.bindAddress, s.mux)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// PeersResponse is the body of /peers.
type PeersResponse struct {
	Known    []*peers.Peer `json:"known"`
	Outbound []string      `json:"outbound"`
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	known, err := s.node.GetPeers()
	if err != nil {
		s.logger.WithError(err).Error("Reading peers")

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	if known == nil {
		known = []*peers.Peer{}
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(PeersResponse{
		Known:    known,
		Outbound: s.node.GetOutboundURLs(),
	})
}

// GetParents composes the parents and last ball of a new unit.
func (s *Service) GetParents(w http.ResponseWriter, r *http.Request) {
	comp, err := s.node.ComposeParentsAndLastBall()
	if err != nil {
		s.logger.WithError(err).Debug("Composing parents")

		status := http.StatusInternalServerError
		var ce *dag.ComposeError
		if errors.As(err, &ce) {
			status = http.StatusConflict
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})

		return
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(comp)
}
