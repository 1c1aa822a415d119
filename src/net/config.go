package net

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/common"
)

// Config contains the settings of a Network.
type Config struct {
	// MyURL is announced to outbound peers with a my_url notification.
	MyURL string

	// MaxInbound caps the number of accepted connections. 0 means no limit.
	MaxInbound int

	// ResponseTimeout is the hard timeout of non-reroutable requests.
	ResponseTimeout time.Duration

	// StalledTimeout is how long a reroutable request waits before a copy is
	// sent to another peer.
	StalledTimeout time.Duration

	// ConnectTimeout is how long a connect attempt blocks other attempts to
	// the same URL.
	ConnectTimeout time.Duration

	// HeartbeatTimeout is the idle period after which a peer is pinged. Peers
	// idle for 4 times as long are disconnected.
	HeartbeatTimeout time.Duration

	// DialRate limits the number of outbound dials per second.
	DialRate float64

	// Program and ProgramVersion are sent in the version notification.
	Program        string
	ProgramVersion string

	Logger *logrus.Logger
}

// DefaultConfig returns a Config with the protocol's default timeouts.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		MaxInbound:       100,
		ResponseTimeout:  300 * time.Second,
		StalledTimeout:   5 * time.Second,
		ConnectTimeout:   5 * time.Second,
		HeartbeatTimeout: 10 * time.Second,
		DialRate:         10,
		Program:          "trustnote-hub",
		Logger:           logger,
	}
}

// TestConfig returns a Config with short timeouts and a logger writing to t.
func TestConfig(t testing.TB, level logrus.Level) *Config {
	config := DefaultConfig()
	config.ResponseTimeout = 2 * time.Second
	config.StalledTimeout = 500 * time.Millisecond
	config.ConnectTimeout = 500 * time.Millisecond
	config.HeartbeatTimeout = time.Second
	config.DialRate = 1000
	config.Logger = common.NewTestLogger(t, level)
	return config
}
