package parquet

import (
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"

	"github.com/wegman-software/tagprep/internal/pipeline"
	"github.com/wegman-software/tagprep/internal/tagmap"
)

// Sink writes classification records to Parquet files in a directory:
// pois.parquet, ways.parquet and relations.parquet.
type Sink struct {
	pois *recordWriter
	ways *recordWriter
	rels *recordWriter
}

// NewSink creates the output directory and the three Parquet writers
func NewSink(dir string, batchSize int) (*Sink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	pois, err := newRecordWriter(filepath.Join(dir, "pois.parquet"), poiSchema(), batchSize)
	if err != nil {
		return nil, err
	}
	ways, err := newRecordWriter(filepath.Join(dir, "ways.parquet"), waySchema(), batchSize)
	if err != nil {
		pois.Close()
		return nil, err
	}
	rels, err := newRecordWriter(filepath.Join(dir, "relations.parquet"), relationSchema(), batchSize)
	if err != nil {
		pois.Close()
		ways.Close()
		return nil, err
	}

	return &Sink{pois: pois, ways: ways, rels: rels}, nil
}

func poiSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "tag_ids", Type: arrow.ListOf(arrow.PrimitiveTypes.Uint16), Nullable: false},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "ref", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "housenumber", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "layer", Type: arrow.PrimitiveTypes.Int8, Nullable: false},
		{Name: "elevation", Type: arrow.PrimitiveTypes.Int16, Nullable: false},
	}, nil)
}

func waySchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "tag_ids", Type: arrow.ListOf(arrow.PrimitiveTypes.Uint16), Nullable: false},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "ref", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "housenumber", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "layer", Type: arrow.PrimitiveTypes.Int8, Nullable: false},
		{Name: "elevation", Type: arrow.PrimitiveTypes.Int16, Nullable: false},
		{Name: "is_area", Type: arrow.FixedWidthTypes.Boolean, Nullable: false},
	}, nil)
}

func relationSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "relation_type", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: "ref", Type: arrow.BinaryTypes.String, Nullable: false},
	}, nil)
}

// WritePOI writes a POI record
func (s *Sink) WritePOI(rec pipeline.POIRecord) error {
	b := s.pois.builder
	b.Field(0).(*array.Int64Builder).Append(rec.ID)
	appendTagIDs(b.Field(1).(*array.ListBuilder), rec.TagIDs)
	b.Field(2).(*array.StringBuilder).Append(rec.Fields.Name)
	b.Field(3).(*array.StringBuilder).Append(rec.Fields.Ref)
	b.Field(4).(*array.StringBuilder).Append(rec.Fields.HouseNumber)
	b.Field(5).(*array.Int8Builder).Append(rec.Fields.Layer)
	b.Field(6).(*array.Int16Builder).Append(rec.Fields.Elevation)
	return s.pois.added()
}

// WriteWay writes a way record
func (s *Sink) WriteWay(rec pipeline.WayRecord) error {
	b := s.ways.builder
	b.Field(0).(*array.Int64Builder).Append(rec.ID)
	appendTagIDs(b.Field(1).(*array.ListBuilder), rec.TagIDs)
	b.Field(2).(*array.StringBuilder).Append(rec.Fields.Name)
	b.Field(3).(*array.StringBuilder).Append(rec.Fields.Ref)
	b.Field(4).(*array.StringBuilder).Append(rec.Fields.HouseNumber)
	b.Field(5).(*array.Int8Builder).Append(rec.Fields.Layer)
	b.Field(6).(*array.Int16Builder).Append(rec.Fields.Elevation)
	b.Field(7).(*array.BooleanBuilder).Append(rec.IsArea)
	return s.ways.added()
}

// WriteRelation writes a relation record
func (s *Sink) WriteRelation(rec pipeline.RelationRecord) error {
	b := s.rels.builder
	b.Field(0).(*array.Int64Builder).Append(rec.ID)
	b.Field(1).(*array.StringBuilder).Append(rec.Fields.RelationType)
	b.Field(2).(*array.StringBuilder).Append(rec.Fields.Name)
	b.Field(3).(*array.StringBuilder).Append(rec.Fields.Ref)
	return s.rels.added()
}

// Close flushes and closes all writers
func (s *Sink) Close() error {
	err := s.pois.Close()
	if werr := s.ways.Close(); err == nil {
		err = werr
	}
	if rerr := s.rels.Close(); err == nil {
		err = rerr
	}
	return err
}

func appendTagIDs(lb *array.ListBuilder, ids []tagmap.ID) {
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.Uint16Builder)
	for _, id := range ids {
		vb.Append(uint16(id))
	}
}

// recordWriter batches rows into Parquet row groups with Zstd compression
type recordWriter struct {
	file      *os.File
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	batchSize int
	count     int
}

func newRecordWriter(path string, schema *arrow.Schema, batchSize int) (*recordWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	writerProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Zstd),
		parquet.WithDictionaryDefault(false),
	)

	writer, err := pqarrow.NewFileWriter(schema, f, writerProps, pqarrow.DefaultWriterProps())
	if err != nil {
		f.Close()
		return nil, err
	}

	return &recordWriter{
		file:      f,
		writer:    writer,
		builder:   array.NewRecordBuilder(memory.DefaultAllocator, schema),
		batchSize: batchSize,
	}, nil
}

// added accounts for one appended row and flushes a full batch
func (w *recordWriter) added() error {
	w.count++
	if w.count >= w.batchSize {
		return w.flush()
	}
	return nil
}

func (w *recordWriter) flush() error {
	if w.count == 0 {
		return nil
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	err := w.writer.Write(rec)
	w.count = 0
	return err
}

// Close flushes remaining rows and closes the file
func (w *recordWriter) Close() error {
	if err := w.flush(); err != nil {
		return err
	}
	if err := w.writer.Close(); err != nil {
		return err
	}
	return w.file.Close()
}
