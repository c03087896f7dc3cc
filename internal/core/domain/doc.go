// Package domain contains the core business entities for the archive:
// platforms, posts, the canonical rich-text model, assets, sync state and
// index records. It has no dependencies on other internal packages.
package domain
