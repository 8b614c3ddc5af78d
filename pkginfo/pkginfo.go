// Package pkginfo supplies installed-package data: the name, version
// code and signing certificates of every package registered under a
// UID. On a device this comes from the platform package manager; here
// the same query surface is backed either by an in-memory table or by
// a SQLite registry, so collection and encoding can run anywhere.
package pkginfo

import "context"

// Record is one installed package as reported by the source.
type Record struct {
	Name         string
	VersionCode  int64
	SigningCerts [][]byte
}

// Source is the one-shot package query the identity collector depends
// on. Implementations return every package registered under uid; a
// nil or empty slice with a nil error means the UID has none. The
// order of the returned records carries no meaning.
type Source interface {
	PackagesForUID(ctx context.Context, uid uint32) ([]Record, error)
}
