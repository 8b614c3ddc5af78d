package appid

import (
	"context"
	"fmt"

	"github.com/aspect-build/attestid/pkginfo"
)

// Collector assembles the attestation application id for a UID from a
// package source. It performs no sorting and no encoding; the encoder
// imposes canonical order later, so the source's enumeration order is
// irrelevant.
type Collector struct {
	src pkginfo.Source
	alg DigestAlg
}

// NewCollector returns a collector reading from src. The zero alg
// selects SHA256.
func NewCollector(src pkginfo.Source, alg DigestAlg) *Collector {
	if alg == 0 {
		alg = SHA256
	}
	return &Collector{src: src, alg: alg}
}

// Collect queries src once for every package registered under uid and
// builds the validated aggregate. Each package's signing certificates
// are digested into the shared set; certificates shared across
// packages collapse to a single digest.
//
// A UID with no packages fails with ErrNotFound, a failing source with
// ErrSourceUnavailable.
func (c *Collector) Collect(ctx context.Context, uid uint32) (*AttestationApplicationID, error) {
	records, err := c.src.PackagesForUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("uid %d: %w: %w", uid, ErrSourceUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("uid %d: %w", uid, ErrNotFound)
	}

	id := &AttestationApplicationID{
		Packages: make([]PackageInfo, 0, len(records)),
	}
	seen := make(map[string]struct{})
	for _, rec := range records {
		id.Packages = append(id.Packages, PackageInfo{Name: rec.Name, Version: rec.VersionCode})
		for _, cert := range rec.SigningCerts {
			h := c.alg.Hash().New()
			h.Write(cert)
			sum := h.Sum(nil)
			if _, dup := seen[string(sum)]; dup {
				continue
			}
			seen[string(sum)] = struct{}{}
			id.SignatureDigests = append(id.SignatureDigests, sum)
		}
	}
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("uid %d: %w", uid, err)
	}
	return id, nil
}
