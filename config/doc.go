// Package config loads application configuration from defaults, an optional
// config file and CHATBOX_-prefixed environment variables, in increasing
// order of precedence.
package config
