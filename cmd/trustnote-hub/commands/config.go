package commands

import (
	"os"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/trustnote/trustnote-go/src/config"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// CLIConfig contains configuration for the Run command
type CLIConfig struct {
	config.Config `mapstructure:",squash"`

	// LogFile, when set, receives a copy of every log entry.
	LogFile string `mapstructure:"log-file"`
}

// NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Config: *config.NewDefaultConfig(),
	}
}

// newLogger builds the node logger. Entries are also written to LogFile when
// it is set and can be opened.
func (c *CLIConfig) newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Level = config.LogLevel(c.LogLevel)
	logger.Formatter = new(prefixed.TextFormatter)

	if c.LogFile == "" {
		return logger
	}

	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		logger.WithError(err).Info("Failed to open log file, using default stderr")
		return logger
	}
	f.Close()

	pathMap := lfshook.PathMap{}
	for _, l := range logrus.AllLevels {
		pathMap[l] = c.LogFile
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))

	return logger
}
