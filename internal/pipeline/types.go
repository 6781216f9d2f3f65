package pipeline

import (
	"github.com/wegman-software/tagprep/internal/tagextract"
	"github.com/wegman-software/tagprep/internal/tagmap"
)

// POIRecord is the classification result for a node carrying known POI tags
type POIRecord struct {
	ID     int64
	TagIDs []tagmap.ID
	Fields tagextract.Fields
}

// WayRecord is the classification result for a way carrying known way tags.
// IsArea is the heuristic verdict; it is always false for open ways.
type WayRecord struct {
	ID     int64
	TagIDs []tagmap.ID
	Fields tagextract.Fields
	IsArea bool
}

// RelationRecord is the classification result for a tagged relation
type RelationRecord struct {
	ID     int64
	Fields tagextract.Fields
}

// Sink receives classification records. Implementations are not required to
// be safe for concurrent use; the pipeline writes from a single goroutine.
type Sink interface {
	WritePOI(rec POIRecord) error
	WriteWay(rec WayRecord) error
	WriteRelation(rec RelationRecord) error
	Close() error
}

// Stats holds classification statistics
type Stats struct {
	Nodes     int64 // entities scanned
	Ways      int64
	Relations int64

	POIRecords      int64 // records emitted
	WayRecords      int64
	RelationRecords int64
	Areas           int64 // way records with a positive area verdict
}
