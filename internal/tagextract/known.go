// Package tagextract classifies OSM tag sets ahead of compact map encoding:
// it maps raw tags onto the closed vocabulary of known tag IDs, pulls out the
// special semantic fields (name, ref, housenumber, layer, elevation, relation
// type), and decides whether a closed way represents an area.
//
// All functions are pure, scan the tag set once, and never fail: malformed
// values degrade to documented defaults with a Debug-level diagnostic.
package tagextract

import (
	"github.com/paulmach/osm"

	"github.com/wegman-software/tagprep/internal/tagmap"
)

// KnownPOITags returns the IDs of the tags recognized by the POI mapping,
// in tag order. Unmapped tags are skipped; duplicate IDs are preserved.
// A nil or empty tag set yields an empty result.
func KnownPOITags(m *tagmap.Mapping, tags osm.Tags) []tagmap.ID {
	var ids []tagmap.ID
	for _, tag := range tags {
		if id, ok := m.PoiTag(tag.Key, tag.Value); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// KnownWayTags returns the IDs of the tags recognized by the way mapping,
// in tag order. Semantics match KnownPOITags; only the lookup table differs.
func KnownWayTags(m *tagmap.Mapping, tags osm.Tags) []tagmap.ID {
	var ids []tagmap.ID
	for _, tag := range tags {
		if id, ok := m.WayTag(tag.Key, tag.Value); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
