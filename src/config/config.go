package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/common"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultPeersFile is the default name of the file where known peer URLs
	// are recorded when the node runs without a persistent store.
	DefaultPeersFile = "peers.json"

	// DefaultConfigName is the name, without extension, of the optional
	// configuration file read from the data directory.
	DefaultConfigName = "trustnote"
)

// Default configuration values.
const (
	DefaultLogLevel         = "debug"
	DefaultBindAddr         = "127.0.0.1:6611"
	DefaultServiceAddr      = "127.0.0.1:6612"
	DefaultStore            = false
	DefaultMaxOutbound      = 5
	DefaultMaxInbound       = 100
	DefaultResponseTimeout  = 300 * time.Second
	DefaultStalledTimeout   = 5 * time.Second
	DefaultConnectTimeout   = 5 * time.Second
	DefaultHeartbeatTimeout = 10 * time.Second
	DefaultDialRate         = 10.0
	DefaultHubRealm         = "trustnote.hub"
	DefaultProgram          = "trustnote-hub"
)

// Config contains all the configuration properties of a node.
type Config struct {
	// DataDir is the top-level directory containing configuration and data
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// BindAddr is the local address:port where the node accepts websocket
	// connections from other peers.
	BindAddr string `mapstructure:"listen"`

	// MyURL is the websocket URL other peers can use to reach this node. When
	// set, it is announced to outbound peers with a my_url notification.
	MyURL string `mapstructure:"my-url"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// Store activates persistant storage.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// InitialPeers are the websocket URLs dialed on startup.
	InitialPeers []string `mapstructure:"peers"`

	// MaxOutbound caps the number of outbound connections opened on startup.
	MaxOutbound int `mapstructure:"max-outbound"`

	// MaxInbound caps the number of accepted inbound connections.
	MaxInbound int `mapstructure:"max-inbound"`

	// ResponseTimeout is the hard timeout of non-reroutable requests.
	ResponseTimeout time.Duration `mapstructure:"response-timeout"`

	// StalledTimeout is how long a reroutable request may wait before it is
	// also sent to another peer.
	StalledTimeout time.Duration `mapstructure:"stalled-timeout"`

	// ConnectTimeout bounds how long an outbound connection attempt is kept in
	// the connecting table. The dial itself may complete later.
	ConnectTimeout time.Duration `mapstructure:"connect-timeout"`

	// HeartbeatTimeout is the idle period after which a peer is pinged.
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat"`

	// DialRate is the maximum number of outbound dials per second.
	DialRate float64 `mapstructure:"dial-rate"`

	// HubRealm is the WAMP realm where hub notifications are published.
	HubRealm string `mapstructure:"hub-realm"`

	// Program and ProgramVersion are reported to peers in the version
	// handshake.
	Program        string `mapstructure:"program"`
	ProgramVersion string `mapstructure:"program-version"`

	// Witnesses is an optional initial witness list. It is only used when the
	// store does not already hold one.
	Witnesses []string `mapstructure:"witnesses"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:          DefaultDataDir(),
		LogLevel:         DefaultLogLevel,
		BindAddr:         DefaultBindAddr,
		ServiceAddr:      DefaultServiceAddr,
		Store:            DefaultStore,
		DatabaseDir:      DefaultDatabaseDir(),
		MaxOutbound:      DefaultMaxOutbound,
		MaxInbound:       DefaultMaxInbound,
		ResponseTimeout:  DefaultResponseTimeout,
		StalledTimeout:   DefaultStalledTimeout,
		ConnectTimeout:   DefaultConnectTimeout,
		HeartbeatTimeout: DefaultHeartbeatTimeout,
		DialRate:         DefaultDialRate,
		HubRealm:         DefaultHubRealm,
		Program:          DefaultProgram,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database directory
// if it is currently set to the default value.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// PeersFile returns the full path of the JSON file of known peers.
func (c *Config) PeersFile() string {
	return filepath.Join(c.DataDir, DefaultPeersFile)
}

// SetLogger replaces the logger returned by Logger.
func (c *Config) SetLogger(logger *logrus.Logger) {
	c.logger = logger
}

// Logger returns a formatted logrus Entry, with prefix set to "trustnote".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "trustnote")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "TrustNote")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "TrustNote")
		} else {
			return filepath.Join(home, ".trustnote")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
