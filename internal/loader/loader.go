package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wegman-software/tagprep/internal/config"
	"github.com/wegman-software/tagprep/internal/logger"
	"github.com/wegman-software/tagprep/internal/pipeline"
	"github.com/wegman-software/tagprep/internal/tagmap"
)

var poiColumns = []string{"id", "tag_ids", "name", "ref", "housenumber", "layer", "elevation"}
var wayColumns = []string{"id", "tag_ids", "name", "ref", "housenumber", "layer", "elevation", "is_area"}
var relColumns = []string{"id", "relation_type", "name", "ref"}

// Sink streams classification records into PostgreSQL using COPY.
// Rows are buffered and copied in batches; Close flushes the remainder and
// creates indexes.
type Sink struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	schema    string
	batchSize int

	pois [][]interface{}
	ways [][]interface{}
	rels [][]interface{}
}

// NewSink connects to PostgreSQL and (re)creates the target tables
func NewSink(ctx context.Context, cfg *config.Config) (*Sink, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Workers)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	s := &Sink{
		ctx:       ctx,
		pool:      pool,
		schema:    cfg.DBSchema,
		batchSize: cfg.BatchSize,
	}

	if err := s.createTables(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) createTables() error {
	if s.schema != "public" {
		if _, err := s.pool.Exec(s.ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", s.schema)); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	// UNLOGGED for load speed; the data is reproducible from the input file
	tables := []string{
		fmt.Sprintf(`CREATE UNLOGGED TABLE IF NOT EXISTS %s.poi_tags (
			id BIGINT NOT NULL,
			tag_ids SMALLINT[] NOT NULL,
			name TEXT,
			ref TEXT,
			housenumber TEXT,
			layer SMALLINT NOT NULL,
			elevation SMALLINT NOT NULL
		)`, s.schema),
		fmt.Sprintf(`CREATE UNLOGGED TABLE IF NOT EXISTS %s.way_tags (
			id BIGINT NOT NULL,
			tag_ids SMALLINT[] NOT NULL,
			name TEXT,
			ref TEXT,
			housenumber TEXT,
			layer SMALLINT NOT NULL,
			elevation SMALLINT NOT NULL,
			is_area BOOLEAN NOT NULL
		)`, s.schema),
		fmt.Sprintf(`CREATE UNLOGGED TABLE IF NOT EXISTS %s.relation_tags (
			id BIGINT NOT NULL,
			relation_type TEXT,
			name TEXT,
			ref TEXT
		)`, s.schema),
	}

	for _, ddl := range tables {
		if _, err := s.pool.Exec(s.ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, tbl := range []string{"poi_tags", "way_tags", "relation_tags"} {
		if _, err := s.pool.Exec(s.ctx, fmt.Sprintf("TRUNCATE %s.%s", s.schema, tbl)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", tbl, err)
		}
	}
	return nil
}

// WritePOI buffers a POI record
func (s *Sink) WritePOI(rec pipeline.POIRecord) error {
	s.pois = append(s.pois, []interface{}{
		rec.ID, toInt16s(rec.TagIDs), rec.Fields.Name, rec.Fields.Ref,
		rec.Fields.HouseNumber, int16(rec.Fields.Layer), rec.Fields.Elevation,
	})
	if len(s.pois) >= s.batchSize {
		return s.flushPOIs()
	}
	return nil
}

// WriteWay buffers a way record
func (s *Sink) WriteWay(rec pipeline.WayRecord) error {
	s.ways = append(s.ways, []interface{}{
		rec.ID, toInt16s(rec.TagIDs), rec.Fields.Name, rec.Fields.Ref,
		rec.Fields.HouseNumber, int16(rec.Fields.Layer), rec.Fields.Elevation, rec.IsArea,
	})
	if len(s.ways) >= s.batchSize {
		return s.flushWays()
	}
	return nil
}

// WriteRelation buffers a relation record
func (s *Sink) WriteRelation(rec pipeline.RelationRecord) error {
	s.rels = append(s.rels, []interface{}{
		rec.ID, rec.Fields.RelationType, rec.Fields.Name, rec.Fields.Ref,
	})
	if len(s.rels) >= s.batchSize {
		return s.flushRelations()
	}
	return nil
}

func (s *Sink) flushPOIs() error {
	err := s.copyRows("poi_tags", poiColumns, s.pois)
	s.pois = s.pois[:0]
	return err
}

func (s *Sink) flushWays() error {
	err := s.copyRows("way_tags", wayColumns, s.ways)
	s.ways = s.ways[:0]
	return err
}

func (s *Sink) flushRelations() error {
	err := s.copyRows("relation_tags", relColumns, s.rels)
	s.rels = s.rels[:0]
	return err
}

func (s *Sink) copyRows(table string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	count, err := s.pool.CopyFrom(
		s.ctx,
		pgx.Identifier{s.schema, table},
		columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("COPY into %s failed: %w", table, err)
	}
	logger.Get().Debug("Copied batch", zap.String("table", table), zap.Int64("rows", count))
	return nil
}

// Close flushes remaining rows, creates indexes and releases the pool
func (s *Sink) Close() error {
	defer s.pool.Close()

	if err := s.flushPOIs(); err != nil {
		return err
	}
	if err := s.flushWays(); err != nil {
		return err
	}
	if err := s.flushRelations(); err != nil {
		return err
	}

	for _, tbl := range []string{"poi_tags", "way_tags", "relation_tags"} {
		idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_id_idx ON %s.%s (id)", tbl, s.schema, tbl)
		if _, err := s.pool.Exec(s.ctx, idx); err != nil {
			return fmt.Errorf("failed to index %s: %w", tbl, err)
		}
		if _, err := s.pool.Exec(s.ctx, fmt.Sprintf("ANALYZE %s.%s", s.schema, tbl)); err != nil {
			return fmt.Errorf("failed to analyze %s: %w", tbl, err)
		}
	}
	return nil
}

func toInt16s(ids []tagmap.ID) []int16 {
	out := make([]int16, len(ids))
	for i, id := range ids {
		out[i] = int16(id)
	}
	return out
}
