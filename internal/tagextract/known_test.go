package tagextract

import (
	"testing"

	"github.com/paulmach/osm"

	"github.com/wegman-software/tagprep/internal/tagmap"
)

const knownTestMapping = `
pois:
  - key: amenity
    values: [cafe, restaurant]
  - key: tourism
    values: [hotel]
ways:
  - key: highway
    values: [residential]
  - key: building
    values: ["*"]
`

func testMapping(t *testing.T) *tagmap.Mapping {
	t.Helper()
	m, err := tagmap.Parse([]byte(knownTestMapping))
	if err != nil {
		t.Fatalf("failed to parse test mapping: %v", err)
	}
	return m
}

func TestKnownPOITagsEmpty(t *testing.T) {
	m := testMapping(t)
	for _, tags := range []osm.Tags{nil, {}} {
		if ids := KnownPOITags(m, tags); len(ids) != 0 {
			t.Errorf("KnownPOITags(%v) = %v, want empty", tags, ids)
		}
	}
}

func TestKnownPOITagsOrderAndSkipping(t *testing.T) {
	m := testMapping(t)
	tags := osm.Tags{
		{Key: "tourism", Value: "hotel"},    // id 2
		{Key: "surface", Value: "asphalt"},  // unmapped, skipped
		{Key: "amenity", Value: "cafe"},     // id 0
	}
	ids := KnownPOITags(m, tags)

	want := []tagmap.ID{2, 0}
	if len(ids) != len(want) {
		t.Fatalf("KnownPOITags = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d (input order must be preserved)", i, ids[i], want[i])
		}
	}
}

func TestKnownPOITagsKeepsDuplicates(t *testing.T) {
	m := testMapping(t)
	tags := osm.Tags{
		{Key: "amenity", Value: "cafe"},
		{Key: "amenity", Value: "cafe"},
	}
	ids := KnownPOITags(m, tags)
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 0 {
		t.Errorf("KnownPOITags = %v, want [0 0] (no deduplication)", ids)
	}
}

func TestKnownWayTagsUsesWaySpace(t *testing.T) {
	m := testMapping(t)
	tags := osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "building", Value: "church"}, // matched via wildcard
		{Key: "amenity", Value: "cafe"},    // POI-only, skipped here
	}
	ids := KnownWayTags(m, tags)
	if len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Errorf("KnownWayTags = %v, want [0 1]", ids)
	}

	if ids := KnownWayTags(m, osm.Tags{{Key: "tourism", Value: "hotel"}}); len(ids) != 0 {
		t.Errorf("way lookup matched POI-only tag: %v", ids)
	}
}

func TestKnownTagsPassKeysThroughUnmodified(t *testing.T) {
	// No case folding happens in the extractor; normalization is owned by
	// the mapping service, which matches exactly.
	m := testMapping(t)
	if ids := KnownPOITags(m, osm.Tags{{Key: "Amenity", Value: "cafe"}}); len(ids) != 0 {
		t.Errorf("extractor must not case-fold keys, got %v", ids)
	}
}
