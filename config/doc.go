// Package config loads client configuration with Viper.
//
// A YAML file and an optional .env file are resolved for a client name,
// then environment variables carrying the name as prefix override file
// values:
//
//	var cfg httpclient.Config
//	err := config.Load("graph-client", &cfg)
//
// GRAPH_CLIENT_RETRY_MAX_RETRIES=5 sets retry.max_retries.
package config
