// Package config loads runtime configuration for the portal CLI.
//
// Sources, later ones override earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. PORTAL_SERVER_URL, PORTAL_STATE_FILE, PORTAL_REQUEST_TIMEOUT,
//     PORTAL_WAIT_TIMEOUT and PORTAL_LOG_LEVEL.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string   base URL of the portal server
//	-f string   path of the local state file
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_url": "https://portal.example.com",
//	  "state_file": "/home/me/.studioportal/state.db",
//	  "request_timeout": "10s"
//	}
package config
