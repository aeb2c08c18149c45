// Package cli provides the command-line interface for webserver.
//
// Commands:
//   - serve: Run a server with routes from a config file, an optional echo
//     prefix and an optional Prometheus endpoint
//   - routes: Print the route table a config file produces
//   - version: Show version information
//
// Configuration is read from defaults, then the config file, then WEBSERVER_*
// environment variables (a .env file in the working directory is loaded
// first), then command-line flags.
package cli
