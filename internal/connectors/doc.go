// Package connectors provides implementations of the Connector interface
// for the supported platforms. The package root carries the shared HTTP
// client with throttling and retries, plus the factory that binds
// credentials to per-platform connectors.
package connectors
