// Package config loads service configuration from a YAML file, a .env file
// and the environment, in that order of increasing precedence.
//
// Environment variables map onto nested keys by splitting on underscores:
// GRAPH_CLIENT_ID sets graph.client_id.
//
//	var cfg app.Config
//	if err := config.LoadConfig("transcriptfeed", &cfg); err != nil { ... }
package config
