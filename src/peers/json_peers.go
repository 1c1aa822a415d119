package peers

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// JSONPeers is used to provide peer persistence on disk in the form
// of a JSON file. This allows human operators to manipulate the file.
type JSONPeers struct {
	l    sync.Mutex
	path string
}

type jsonPeersFile struct {
	Hosts []string `json:"peer_hosts"`
	Peers []*Peer  `json:"peers"`
}

// NewJSONPeers creates a new JSONPeers store writing to path.
func NewJSONPeers(path string) *JSONPeers {
	store := &JSONPeers{
		path: path,
	}
	return store
}

// AddPeerHost implements the Store interface.
func (j *JSONPeers) AddPeerHost(host string) error {
	j.l.Lock()
	defer j.l.Unlock()

	f, err := j.read()
	if err != nil {
		return err
	}

	for _, h := range f.Hosts {
		if h == host {
			return nil
		}
	}
	f.Hosts = append(f.Hosts, host)
	sort.Strings(f.Hosts)

	return j.write(f)
}

// AddPeer implements the Store interface.
func (j *JSONPeers) AddPeer(host, url string) error {
	j.l.Lock()
	defer j.l.Unlock()

	f, err := j.read()
	if err != nil {
		return err
	}

	set := NewPeersFromSlice(f.Peers)
	if !set.AddPeer(&Peer{URL: url, Host: host}) {
		return nil
	}
	f.Peers = set.ToPeerSlice()

	return j.write(f)
}

// Peers implements the Store interface.
func (j *JSONPeers) Peers() ([]*Peer, error) {
	j.l.Lock()
	defer j.l.Unlock()

	f, err := j.read()
	if err != nil {
		return nil, err
	}
	return f.Peers, nil
}

func (j *JSONPeers) read() (*jsonPeersFile, error) {
	f := &jsonPeersFile{}

	// Read the file
	buf, err := ioutil.ReadFile(j.path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", j.path)
	}

	// Check for no peers
	if len(buf) == 0 {
		return f, nil
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(f); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", j.path)
	}

	return f, nil
}

func (j *JSONPeers) write(f *jsonPeersFile) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	if err := enc.Encode(f); err != nil {
		return err
	}

	// Write out as JSON
	return ioutil.WriteFile(j.path, buf.Bytes(), 0644)
}
