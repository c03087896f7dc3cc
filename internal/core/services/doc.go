// Package services contains the core orchestration logic: the sync
// controller driving full and incremental archive runs, and the link
// fixer rewriting cross-references after a batch commits. Services
// depend only on ports; adapters are wired in at the CLI.
package services
