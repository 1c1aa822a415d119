package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trustnote/trustnote-go/src/config"
	"github.com/trustnote/trustnote-go/src/node"
	"github.com/trustnote/trustnote-go/src/service"
)

//NewRunCmd returns the command that starts a hub node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runNode,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(cmd *cobra.Command, args []string) error {
	logger := _config.Logger()

	n := node.NewNode(&_config.Config)

	if err := n.Init(); err != nil {
		logger.WithError(err).Error("Cannot initialize node")
		return err
	}

	if !_config.NoService {
		s := service.NewService(_config.ServiceAddr, n, logger.WithField("component", "service"))
		go s.Serve()
	}

	// Intercept the SIGINT and SIGTERM signals to shut down gracefully
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Shutting down")
		n.Shutdown()
	}()

	n.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Also write logs to this file")

	// Network
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port for websocket peers, empty to refuse inbound connections")
	cmd.Flags().String("my-url", _config.MyURL, "Websocket URL announced to outbound peers")
	cmd.Flags().StringSlice("peers", _config.InitialPeers, "Websocket URLs of the initial peers")
	cmd.Flags().Int("max-outbound", _config.MaxOutbound, "Number of outbound connections to maintain")
	cmd.Flags().Int("max-inbound", _config.MaxInbound, "Max number of inbound connections")
	cmd.Flags().Float64("dial-rate", _config.DialRate, "Max outbound dials per second")

	// Requests
	cmd.Flags().Duration("response-timeout", _config.ResponseTimeout, "Timeout of non-reroutable requests")
	cmd.Flags().Duration("stalled-timeout", _config.StalledTimeout, "Delay before a reroutable request is sent to another peer")
	cmd.Flags().Duration("connect-timeout", _config.ConnectTimeout, "Timeout of outbound connection attempts")
	cmd.Flags().Duration("heartbeat", _config.HeartbeatTimeout, "Idle period after which peers are pinged")

	// Handshake
	cmd.Flags().String("program", _config.Program, "Program name reported to peers")
	cmd.Flags().String("program-version", _config.ProgramVersion, "Program version reported to peers")

	// Hub
	cmd.Flags().String("hub-realm", _config.HubRealm, "WAMP realm of hub notifications, empty to disable")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.NoService, "Disable HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.DatabaseDir, "Dabatabase directory")
	cmd.Flags().StringSlice("witnesses", _config.Witnesses, "Initial witness addresses")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	_config.SetLogger(_config.newLogger())

	logFields := logrus.Fields{
		"DataDir":          _config.DataDir,
		"BindAddr":         _config.BindAddr,
		"MyURL":            _config.MyURL,
		"ServiceAddr":      _config.ServiceAddr,
		"NoService":        _config.NoService,
		"Store":            _config.Store,
		"InitialPeers":     _config.InitialPeers,
		"MaxOutbound":      _config.MaxOutbound,
		"MaxInbound":       _config.MaxInbound,
		"ResponseTimeout":  _config.ResponseTimeout,
		"StalledTimeout":   _config.StalledTimeout,
		"ConnectTimeout":   _config.ConnectTimeout,
		"HeartbeatTimeout": _config.HeartbeatTimeout,
		"DialRate":         _config.DialRate,
		"HubRealm":         _config.HubRealm,
		"LogLevel":         _config.LogLevel,
		"Witnesses":        len(_config.Witnesses),
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/trustnote.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName)
	viper.AddConfigPath(_config.DataDir)

	// Read in config file, if any
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
