package tagextract

import (
	"testing"

	"github.com/paulmach/osm"
)

func nodeID(ref int64) osm.ElementID {
	return osm.NodeID(ref).ElementID()
}

func TestSpecialFieldsEmptyTags(t *testing.T) {
	for _, tags := range []osm.Tags{nil, {}} {
		f := SpecialFields(nodeID(1), tags, "", nil)
		want := Fields{Layer: 5}
		if f != want {
			t.Errorf("SpecialFields(%v) = %+v, want all defaults %+v", tags, f, want)
		}
	}
}

func TestSpecialFieldsBasic(t *testing.T) {
	tags := osm.Tags{
		{Key: "name", Value: "Main St"},
		{Key: "ref", Value: "B27"},
		{Key: "addr:housenumber", Value: "12a"},
		{Key: "type", Value: "multipolygon"},
	}
	f := SpecialFields(osm.RelationID(7).ElementID(), tags, "", nil)

	if f.Name != "Main St" {
		t.Errorf("Name = %q, want 'Main St'", f.Name)
	}
	if f.Ref != "B27" {
		t.Errorf("Ref = %q, want 'B27'", f.Ref)
	}
	if f.HouseNumber != "12a" {
		t.Errorf("HouseNumber = %q, want '12a'", f.HouseNumber)
	}
	if f.RelationType != "multipolygon" {
		t.Errorf("RelationType = %q, want 'multipolygon'", f.RelationType)
	}
}

func TestSpecialFieldsKeysAreCaseInsensitive(t *testing.T) {
	tags := osm.Tags{
		{Key: "NAME", Value: "Bridge"},
		{Key: "Ref", Value: "42"},
	}
	f := SpecialFields(nodeID(1), tags, "", nil)
	if f.Name != "Bridge" || f.Ref != "42" {
		t.Errorf("got Name=%q Ref=%q, want 'Bridge'/'42'", f.Name, f.Ref)
	}
}

func TestSpecialFieldsLastOccurrenceWins(t *testing.T) {
	tags := osm.Tags{
		{Key: "ref", Value: "A1"},
		{Key: "ref", Value: "A2"},
		{Key: "addr:housenumber", Value: "1"},
		{Key: "addr:housenumber", Value: "2"},
	}
	f := SpecialFields(nodeID(1), tags, "", nil)
	if f.Ref != "A2" {
		t.Errorf("Ref = %q, want 'A2'", f.Ref)
	}
	if f.HouseNumber != "2" {
		t.Errorf("HouseNumber = %q, want '2'", f.HouseNumber)
	}
}

func TestPreferredLanguageName(t *testing.T) {
	// The language match must win regardless of tag order
	orders := map[string]osm.Tags{
		"name first": {
			{Key: "name", Value: "Main St"},
			{Key: "name:de", Value: "Hauptstraße"},
		},
		"name:de first": {
			{Key: "name:de", Value: "Hauptstraße"},
			{Key: "name", Value: "Main St"},
		},
	}
	for name, tags := range orders {
		t.Run(name, func(t *testing.T) {
			f := SpecialFields(nodeID(1), tags, "de", nil)
			if f.Name != "Hauptstraße" {
				t.Errorf("Name = %q, want 'Hauptstraße'", f.Name)
			}
		})
	}
}

func TestPreferredLanguageIgnoredWithoutPreference(t *testing.T) {
	tags := osm.Tags{
		{Key: "name:de", Value: "Hauptstraße"},
		{Key: "name", Value: "Main St"},
	}
	f := SpecialFields(nodeID(1), tags, "", nil)
	if f.Name != "Main St" {
		t.Errorf("Name = %q, want 'Main St'", f.Name)
	}
}

func TestPreferredLanguageCodeComparison(t *testing.T) {
	// The preference itself is matched case-insensitively
	tags := osm.Tags{
		{Key: "name:de", Value: "Hauptstraße"},
	}
	f := SpecialFields(nodeID(1), tags, "DE", nil)
	if f.Name != "Hauptstraße" {
		t.Errorf("Name = %q, want 'Hauptstraße'", f.Name)
	}

	// Only exactly two lowercase letters qualify as a language suffix
	tags = osm.Tags{
		{Key: "name:gsw", Value: "Hauptstrooss"},
		{Key: "name", Value: "Main St"},
	}
	f = SpecialFields(nodeID(1), tags, "gs", nil)
	if f.Name != "Main St" {
		t.Errorf("Name = %q, want 'Main St' (three-letter suffix must not match)", f.Name)
	}
}

func TestPisteNameIsFallbackOnly(t *testing.T) {
	f := SpecialFields(nodeID(1), osm.Tags{
		{Key: "piste:name", Value: "Abfahrt Nord"},
	}, "", nil)
	if f.Name != "Abfahrt Nord" {
		t.Errorf("Name = %q, want 'Abfahrt Nord'", f.Name)
	}

	f = SpecialFields(nodeID(1), osm.Tags{
		{Key: "name", Value: "Nordhang"},
		{Key: "piste:name", Value: "Abfahrt Nord"},
	}, "", nil)
	if f.Name != "Nordhang" {
		t.Errorf("Name = %q, want 'Nordhang' (piste:name must not overwrite)", f.Name)
	}
}

func TestLayerParsing(t *testing.T) {
	tests := []struct {
		value string
		want  int8
	}{
		{"3", 8},    // in range, shifted
		{"-5", 0},   // lower bound, shifted
		{"5", 10},   // upper bound, shifted
		{"0", 5},    // ground
		{"7", 7},    // out of range, stored raw
		{"-7", -7},  // out of range, stored raw
		{"abc", 5},  // parse failure keeps default
		{"2.5", 5},  // not an integer
		{"", 5},     // empty value
		{"300", 5},  // exceeds 8-bit range, parse failure
	}
	for _, tt := range tests {
		tags := osm.Tags{{Key: "layer", Value: tt.value}}
		f := SpecialFields(nodeID(1), tags, "", nil)
		if f.Layer != tt.want {
			t.Errorf("layer=%q: Layer = %d, want %d", tt.value, f.Layer, tt.want)
		}
	}
}

func TestElevationParsing(t *testing.T) {
	tests := []struct {
		value string
		want  int16
	}{
		{"1234", 1234},
		{"1234m", 1234},      // m stripped
		{"1234,5", 1234},     // comma is decimal separator, truncated
		{"8500m", 8500},
		{"8999.9", 8999},
		{"9000m", 0},         // ceiling is exclusive
		{"12000", 0},
		{"1.234,5m", 0},      // double substitution yields "1.234.5", unparseable
		{"abc", 0},
		{"-12", -12},
	}
	for _, tt := range tests {
		tags := osm.Tags{{Key: "ele", Value: tt.value}}
		f := SpecialFields(nodeID(1), tags, "", nil)
		if f.Elevation != tt.want {
			t.Errorf("ele=%q: Elevation = %d, want %d", tt.value, f.Elevation, tt.want)
		}
	}
}

func TestUnrelatedKeysIgnored(t *testing.T) {
	tags := osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "surface", Value: "asphalt"},
	}
	f := SpecialFields(osm.WayID(9).ElementID(), tags, "de", nil)
	want := Fields{Layer: 5}
	if f != want {
		t.Errorf("SpecialFields = %+v, want all defaults", f)
	}
}
