package domain

import "time"

// Platform identifies a supported creator platform.
type Platform string

const (
	// PlatformSponsr is sponsr.ru.
	PlatformSponsr Platform = "sponsr"

	// PlatformBoosty is boosty.to.
	PlatformBoosty Platform = "boosty"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	return p == PlatformSponsr || p == PlatformBoosty
}

// ContentFormat identifies the shape of a raw post payload.
type ContentFormat string

const (
	// FormatBlocks is the Boosty block-array content model (JSON array).
	FormatBlocks ContentFormat = "blocks"

	// FormatTagTree is the Sponsr HTML fragment content model.
	FormatTagTree ContentFormat = "tagtree"
)

// RawPost is the platform-native payload for one post as returned by a
// connector. Content is uninterpreted; a normaliser for the matching
// ContentFormat turns it into the canonical model.
type RawPost struct {
	// Platform that produced the payload.
	Platform Platform

	// Author is the platform-native author identifier.
	Author string

	// ID is the platform-native post identifier.
	ID string

	// Title is the post title.
	Title string

	// PublishedAt is the original publication time.
	PublishedAt time.Time

	// SourceURL is the canonical upstream URL of the post.
	SourceURL string

	// Tags are plain tag labels. Platform-specific tag object shapes are
	// flattened at the connector boundary.
	Tags []string

	// Format describes how Content must be interpreted.
	Format ContentFormat

	// Content is the raw body payload: a JSON block array for
	// FormatBlocks, an HTML fragment for FormatTagTree.
	Content []byte

	// Partial marks listing payloads whose Content is truncated.
	// Partial posts must be re-fetched individually before processing.
	Partial bool
}

// Post is the canonical form of one archived post. It is created by a
// normaliser and is immutable once rendered. Identity is
// (Platform, Author, ID).
type Post struct {
	Platform    Platform
	Author      string
	ID          string
	Title       string
	Body        RichText
	PublishedAt time.Time
	SourceURL   string
	Tags        []string

	// Assets are the media references discovered in the body, in
	// document order.
	Assets []*Asset
}

// AssetKind classifies a referenced media object.
type AssetKind string

const (
	AssetImage    AssetKind = "image"
	AssetVideo    AssetKind = "video"
	AssetAudio    AssetKind = "audio"
	AssetDocument AssetKind = "document"
)

// AssetState tracks an asset through the acquisition pipeline.
type AssetState int

const (
	// AssetPending means the asset was discovered but not yet fetched.
	AssetPending AssetState = iota

	// AssetResolved means the bytes are on disk under LocalName.
	AssetResolved

	// AssetFailed means acquisition gave up; the rendered output keeps
	// the original URL as an external reference.
	AssetFailed
)

// Asset is one referenced media object, owned by exactly one Post.
type Asset struct {
	// URL is the origin URL the asset was discovered under.
	URL string

	// Alt is the alternative text or title found next to the reference.
	Alt string

	// Kind is the inferred media kind.
	Kind AssetKind

	// LocalName is the resolved on-disk filename inside the post's
	// assets directory. Set when State is AssetResolved.
	LocalName string

	// State is the acquisition state.
	State AssetState
}
