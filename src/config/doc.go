// Package config defines the configuration for a node.
//
// Regardless of how the node is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. On top of these
// options, the node relies on a data directory, defined by Config.DataDir,
// where it may find:
//
//  trustnote.toml // (optional) configuration file read by the CLI.
//  peers.json // known peer URLs, when running without a persistent store.
//  badger_db // the database directory, when Store is set.
package config
