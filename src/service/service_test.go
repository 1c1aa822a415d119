package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustnote/trustnote-go/src/common"
	"github.com/trustnote/trustnote-go/src/config"
	"github.com/trustnote/trustnote-go/src/dag"
	"github.com/trustnote/trustnote-go/src/node"
)

func makeWitnesses(prefix string) []string {
	res := make([]string, dag.CountWitnesses)
	for i := range res {
		res[i] = fmt.Sprintf("%s%02d", prefix, i)
	}
	return res
}

func initService(t *testing.T, witnesses []string) (*node.Node, *httptest.Server) {
	conf := config.NewTestConfig(t, logrus.ErrorLevel)
	conf.SetDataDir(t.TempDir())
	conf.BindAddr = ""
	conf.HubRealm = ""
	conf.HeartbeatTimeout = time.Second
	conf.Witnesses = witnesses

	n := node.NewNode(conf)
	require.NoError(t, n.Init())

	s := NewService("", n, common.NewTestEntry(t, logrus.ErrorLevel))

	return n, httptest.NewServer(s)
}

func getJSON(t *testing.T, url string, v interface{}) int {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))

	return resp.StatusCode
}

func TestGetStats(t *testing.T) {
	n, server := initService(t, makeWitnesses("w"))
	defer n.Shutdown()
	defer server.Close()

	stats := map[string]string{}
	status := getJSON(t, server.URL+"/stats", &stats)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "12", stats["witnesses"])
	assert.Equal(t, "0", stats["outbound"])
	assert.Equal(t, "Connecting", stats["state"])
	assert.Equal(t, "1.0", stats["protocol_version"])
}

func TestGetPeers(t *testing.T) {
	n, server := initService(t, nil)
	defer n.Shutdown()
	defer server.Close()

	require.NoError(t, n.PeerStore.AddPeer("a.org", "wss://a.org/bb"))

	var res PeersResponse
	status := getJSON(t, server.URL+"/peers", &res)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, res.Known, 1)
	assert.Equal(t, "wss://a.org/bb", res.Known[0].URL)
	assert.Empty(t, res.Outbound)
}

func TestGetParents(t *testing.T) {
	w := makeWitnesses("w")
	n, server := initService(t, w)
	defer n.Shutdown()
	defer server.Close()

	g := dag.NewUnit("G")
	g.Witnesses = w
	g.MainChainIndex = 0
	g.IsFree = false
	g.IsStable = true
	g.IsOnMainChain = true
	g.Ball = "ball_G"
	require.NoError(t, n.Store.SetUnit(g))

	f := dag.NewUnit("F", "G")
	f.WitnessListUnit = "G"
	f.BestParentUnit = "G"
	require.NoError(t, n.Store.SetUnit(f))

	var comp dag.Composition
	status := getJSON(t, server.URL+"/parents", &comp)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, dag.Composition{
		ParentUnits:    []string{"F"},
		LastStableBall: "ball_G",
		LastStableUnit: "G",
		LastStableMCI:  0,
	}, comp)
}

func TestGetParentsError(t *testing.T) {
	n, server := initService(t, makeWitnesses("w"))
	defer n.Shutdown()
	defer server.Close()

	// empty DAG
	res := map[string]string{}
	status := getJSON(t, server.URL+"/parents", &res)

	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, res["error"])
}
