package tagextract

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"go.uber.org/zap"
)

// maxElevation is the exclusive ceiling for accepted elevation values.
const maxElevation = 9000

// defaultLayer is the stored value for the conventional ground layer:
// signed layers in [-5, 5] are shifted by +5 before storage.
const defaultLayer = 5

// Fields is the fixed set of special semantic attributes extracted from a
// tag set. String fields are empty when the tag was absent.
type Fields struct {
	Name         string
	Ref          string
	HouseNumber  string
	Layer        int8
	Elevation    int16
	RelationType string
}

// SpecialFields scans the tag set once, in order, and extracts the special
// fields. Keys are compared case-insensitively. preferredLanguage is a
// two-letter code; when a matching name:XX tag is found it wins over any
// plain name tag, before or after it. Parse failures keep the previous value
// and are reported on log at Debug level; they never abort the scan.
// A nil log disables diagnostics without changing results.
func SpecialFields(id osm.ElementID, tags osm.Tags, preferredLanguage string, log *zap.Logger) Fields {
	if log == nil {
		log = zap.NewNop()
	}

	f := Fields{Layer: defaultLayer}
	var nameSet, foundPreferredName bool

	for _, tag := range tags {
		key := strings.ToLower(tag.Key)
		switch key {
		case "name":
			if !foundPreferredName {
				f.Name = tag.Value
				nameSet = true
			}
		case "piste:name":
			if !nameSet {
				f.Name = tag.Value
				nameSet = true
			}
		case "addr:housenumber":
			f.HouseNumber = tag.Value
		case "ref":
			f.Ref = tag.Value
		case "layer":
			// Values in [-5, 5] are shifted onto 0..10. Parsed values
			// outside that range are stored as-is, unshifted; downstream
			// consumers rely on this exact behavior.
			if v, err := strconv.ParseInt(tag.Value, 10, 8); err == nil {
				if v >= -5 && v <= 5 {
					v += 5
				}
				f.Layer = int8(v)
			} else {
				log.Debug("could not parse layer value",
					zap.String("value", tag.Value),
					zap.Int64("entity_id", id.Ref()),
					zap.String("entity_type", string(id.Type())),
				)
			}
		case "ele":
			s := strings.ReplaceAll(tag.Value, "m", "")
			s = strings.ReplaceAll(s, ",", ".")
			v, err := strconv.ParseFloat(s, 64)
			switch {
			case err != nil:
				log.Debug("could not parse elevation value",
					zap.String("value", tag.Value),
					zap.Int64("entity_id", id.Ref()),
					zap.String("entity_type", string(id.Type())),
				)
			case v < maxElevation:
				t := math.Trunc(v)
				if t < math.MinInt16 {
					t = math.MinInt16
				}
				f.Elevation = int16(t)
			default:
				log.Debug("elevation value out of range",
					zap.String("value", tag.Value),
					zap.Int64("entity_id", id.Ref()),
					zap.String("entity_type", string(id.Type())),
				)
			}
		case "type":
			f.RelationType = tag.Value
		default:
			if preferredLanguage != "" && !foundPreferredName {
				if code, ok := languageSuffix(key); ok && strings.EqualFold(code, preferredLanguage) {
					f.Name = tag.Value
					nameSet = true
					foundPreferredName = true
				}
			}
		}
	}

	return f
}

// languageSuffix reports whether key is "name:" followed by exactly two
// lowercase letters, returning the two-letter code. The key is already
// lowercased by the caller.
func languageSuffix(key string) (string, bool) {
	if len(key) != 7 || !strings.HasPrefix(key, "name:") {
		return "", false
	}
	if key[5] < 'a' || key[5] > 'z' || key[6] < 'a' || key[6] > 'z' {
		return "", false
	}
	return key[5:], true
}
