// Package driven defines the outbound ports the core services depend on:
// platform connectors, the persistent index, normalisers, the renderer,
// the asset pipeline and the archive writer. Adapters implement these
// interfaces; services consume them.
package driven
