package tagextract

import (
	"strings"

	"github.com/paulmach/osm"
)

// IsArea decides from tags alone whether a closed way should be treated as
// an area. The caller guarantees the way is geometrically closed with enough
// nodes; no geometry is inspected here.
//
// An explicit area tag wins immediately: yes/y/true forces an area, no/n/false
// forces a line. Without one, the presence of a highway, railway or barrier
// tag flips the default verdict to false. A way with no tags is an area.
func IsArea(tags osm.Tags) bool {
	result := true
	for _, tag := range tags {
		key := strings.ToLower(tag.Key)
		value := strings.ToLower(tag.Value)
		if key == "area" {
			if value == "yes" || value == "y" || value == "true" {
				return true
			}
			if value == "no" || value == "n" || value == "false" {
				return false
			}
		}
		if key == "highway" || key == "railway" || key == "barrier" {
			result = false
		}
	}
	return result
}
