// Package config provides configuration types and loaders for the webserver.
//
// Two levels of configuration live here:
//   - ServerConfiguration: engine settings for one facade instance (timeouts,
//     body and connection limits, request history size)
//   - Config: the project file read by the CLI, which adds the listen address,
//     logging, metrics and the route table served by `webserver serve`
//
// File-based Configuration:
//
// Config files are YAML:
//
//	listen: localhost:5001
//	echoPrefix: /echo/
//	log:
//	  level: debug
//	metrics:
//	  addr: 127.0.0.1:9090
//	server:
//	  readTimeout: 30
//	  maxConnections: 64
//	routes:
//	  - path: /
//	    headers:
//	      Content-Type: text/plain
//	    body: test
//	  - path: /raise
//	    error: Ooooops, error
//	include:
//	  - routes/**/*.yaml
//
// Included files hold either a list of routes or a document with a `routes`
// key. Include patterns are resolved relative to the directory of the file
// that names them and support ** via doublestar.
//
// Environment:
//
// LoadDotEnv reads a .env file into the process environment and ApplyEnv
// copies the WEBSERVER_* variables over values read from file.
package config
