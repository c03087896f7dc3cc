// Package normalisers provides implementations of the Normaliser interface
// for the upstream content models. Each normaliser converts one raw payload
// format into the canonical rich-text model.
//
// Normalisers are registered with the Registry at startup and selected by
// the raw post's content format.
package normalisers
