// Package driving defines the inbound ports: the operations the CLI
// invokes on the core services.
package driving
