package tagmap

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ID is the small integer handle assigned to a known (key, value) pair.
// POI and way tags live in separate ID spaces, both starting at zero.
type ID uint16

//go:embed default.yaml
var defaultYAML []byte

// fileConfig mirrors the YAML layout of a mapping definition file
type fileConfig struct {
	POIs []entry `yaml:"pois"`
	Ways []entry `yaml:"ways"`
}

type entry struct {
	Key string `yaml:"key"`
	// Values lists the recognized values for the key. A single "*" accepts
	// any value.
	Values []string `yaml:"values"`
}

// Mapping is an immutable lookup table from (key, value) pairs to tag IDs.
// It is fully constructed before use and safe for concurrent readers.
type Mapping struct {
	pois map[string]ID
	ways map[string]ID
}

// Load reads a mapping definition from a YAML file
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse builds a mapping from YAML data
func Parse(data []byte) (*Mapping, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	m := &Mapping{
		pois: make(map[string]ID),
		ways: make(map[string]ID),
	}
	if err := fill(m.pois, cfg.POIs); err != nil {
		return nil, fmt.Errorf("pois: %w", err)
	}
	if err := fill(m.ways, cfg.Ways); err != nil {
		return nil, fmt.Errorf("ways: %w", err)
	}
	return m, nil
}

// Default returns the built-in mapping. The embedded definition is validated
// at build time by the package tests, so a parse failure here is a programming
// error and panics.
func Default() *Mapping {
	m, err := Parse(defaultYAML)
	if err != nil {
		panic("tagmap: invalid embedded default mapping: " + err.Error())
	}
	return m
}

// fill assigns IDs densely in document order
func fill(table map[string]ID, entries []entry) error {
	var next ID
	for _, e := range entries {
		if e.Key == "" {
			return fmt.Errorf("entry with empty key")
		}
		if len(e.Values) == 0 {
			return fmt.Errorf("key %q has no values", e.Key)
		}
		for _, v := range e.Values {
			pair := e.Key + "=" + v
			if _, dup := table[pair]; dup {
				return fmt.Errorf("duplicate pair %q", pair)
			}
			table[pair] = next
			next++
		}
	}
	return nil
}

// PoiTag looks up the POI tag ID for a (key, value) pair. Matching is exact,
// with a "*" wildcard entry accepting any value for its key.
func (m *Mapping) PoiTag(key, value string) (ID, bool) {
	if m == nil {
		panic("tagmap: lookup before mapping was initialized")
	}
	return lookup(m.pois, key, value)
}

// WayTag looks up the way tag ID for a (key, value) pair
func (m *Mapping) WayTag(key, value string) (ID, bool) {
	if m == nil {
		panic("tagmap: lookup before mapping was initialized")
	}
	return lookup(m.ways, key, value)
}

func lookup(table map[string]ID, key, value string) (ID, bool) {
	if id, ok := table[key+"="+value]; ok {
		return id, true
	}
	if id, ok := table[key+"=*"]; ok {
		return id, true
	}
	return 0, false
}

// PoiCount returns the number of known POI (key, value) pairs
func (m *Mapping) PoiCount() int {
	return len(m.pois)
}

// WayCount returns the number of known way (key, value) pairs
func (m *Mapping) WayCount() int {
	return len(m.ways)
}
