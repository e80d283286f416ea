// Package models defines the core data structures shared by the storage
// server and the sync client.
package models

import "regexp"

const (
	// ProtocolVersion is the wire protocol version spoken by both sides.
	// A client advertising a different version is rejected before
	// authentication.
	ProtocolVersion = "1.0"

	// ServerName identifies the server in /api/test responses.
	ServerName = "GTACOMPTA Server v1.0"

	// ServerProduct identifies the server in /api/status responses.
	ServerProduct = "GTACOMPTA Database Server"

	// ServerVersion is the server build version reported by /api/status.
	ServerVersion = "1.0.0"
)

// Wire header names shared by client and server.
const (
	HeaderServerPassword  = "X-Password"
	HeaderUsername        = "X-Username"
	HeaderUserPassword    = "X-User-Password"
	HeaderProtocolVersion = "X-Protocol-Version"
)

// User represents a storage-server account.
type User struct {
	// Name is the unique, case-sensitive login name.
	Name string `json:"name"`
	// PasswordHash is the hex-encoded SHA-256 digest of the password.
	PasswordHash string `json:"passwordHash"`
	// ReadOnly marks accounts that may load but never save collections.
	ReadOnly bool `json:"readonly"`
}

// Record is a single schemaless entry of a collection. Collections are
// stored and transferred as plain JSON arrays of these.
type Record map[string]any

// KnownCollections lists the collection names managed by the client
// application. The server accepts any name; this list only drives client
// bootstrapping.
var KnownCollections = []string{
	"clients",
	"employees",
	"transactions",
	"awaiting_transactions",
	"notes",
	"offers",
	"supplements",
	"company",
}

var collectionNameRe = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeCollectionName replaces every character outside [A-Za-z0-9_-]
// with an underscore. It must be applied before any filesystem access so
// a collection name can never escape the data directory.
func SanitizeCollectionName(name string) string {
	return collectionNameRe.ReplaceAllString(name, "_")
}
