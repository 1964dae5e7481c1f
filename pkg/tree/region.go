package tree

import (
	"strings"

	"golang.org/x/text/cases"
)

// Sentinels used when a region key part is not specified.
const (
	NoRegion   = "no_state"
	NoLocality = "no_city"
)

// RegionKey selects a patch set: an administrative region (state) and a
// locality (city). Keys are case-insensitive; build them with NewRegionKey
// or ParseRegionKey so they are normalized.
type RegionKey struct {
	Region   string
	Locality string
}

// Unspecified is the key used when no region is given.
var Unspecified = RegionKey{Region: NoRegion, Locality: NoLocality}

// NewRegionKey normalizes region and locality: surrounding space is trimmed,
// case is folded and empty parts become the sentinels.
func NewRegionKey(region, locality string) RegionKey {
	return RegionKey{
		Region:   normalizePart(region, NoRegion),
		Locality: normalizePart(locality, NoLocality),
	}
}

// ParseRegionKey parses "region/locality". A string without a slash is a
// region without locality.
func ParseRegionKey(s string) RegionKey {
	region, locality, _ := strings.Cut(s, "/")
	return NewRegionKey(region, locality)
}

func normalizePart(s, sentinel string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return sentinel
	}
	return cases.Fold().String(s) // Casers are stateful
}

func (k RegionKey) String() string {
	return k.Region + "/" + k.Locality
}

// IsUnspecified reports whether both parts are sentinels.
func (k RegionKey) IsUnspecified() bool {
	return k == Unspecified
}

func (k RegionKey) Compare(other RegionKey) int {
	if c := strings.Compare(k.Region, other.Region); c != 0 {
		return c
	}
	return strings.Compare(k.Locality, other.Locality)
}
