package pipeline

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/tagprep/internal/config"
	"github.com/wegman-software/tagprep/internal/logger"
	"github.com/wegman-software/tagprep/internal/script"
	"github.com/wegman-software/tagprep/internal/tagextract"
	"github.com/wegman-software/tagprep/internal/tagmap"
)

// result is the union of record kinds flowing to the sink goroutine
type result struct {
	poi *POIRecord
	way *WayRecord
	rel *RelationRecord
}

// Classifier streams a PBF file, runs tag classification on every entity in
// a worker pool and funnels the records to a single sink goroutine.
type Classifier struct {
	cfg     *config.Config
	mapping *tagmap.Mapping
	sink    Sink
	log     *zap.Logger

	nodes, ways, relations          atomic.Int64
	poiRecs, wayRecs, relRecs, area atomic.Int64
}

// New creates a classifier. The mapping must be fully constructed; the
// extractors panic on a nil mapping.
func New(cfg *config.Config, mapping *tagmap.Mapping, sink Sink) *Classifier {
	return &Classifier{
		cfg:     cfg,
		mapping: mapping,
		sink:    sink,
		log:     logger.Get(),
	}
}

// Run executes the classification. The sink is not closed; that is the
// caller's responsibility.
func (c *Classifier) Run(ctx context.Context) (*Stats, error) {
	f, err := os.Open(c.cfg.InputFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numWorkers := c.cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	objects := make(chan osm.Object, 10000)
	results := make(chan result, 10000)

	g, gctx := errgroup.WithContext(ctx)
	workers, wctx := errgroup.WithContext(gctx)

	for i := 0; i < numWorkers; i++ {
		workers.Go(func() error {
			return c.worker(wctx, objects, results)
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	// Scanner goroutine; the osmpbf scanner decodes blocks in parallel on
	// its own
	g.Go(func() error {
		defer close(objects)
		scanner := osmpbf.New(gctx, f, runtime.NumCPU())
		defer scanner.Close()

		for scanner.Scan() {
			obj := scanner.Object()
			if c.skip(obj) {
				continue
			}
			select {
			case objects <- obj:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			return err
		}
		return nil
	})

	// Sink goroutine; sinks are single-writer
	g.Go(func() error {
		for res := range results {
			if err := c.write(res); err != nil {
				return err
			}
		}
		return nil
	})

	// Progress ticker
	progressCtx, cancelProgress := context.WithCancel(context.Background())
	defer cancelProgress()
	go c.reportProgress(progressCtx)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Stats{
		Nodes:           c.nodes.Load(),
		Ways:            c.ways.Load(),
		Relations:       c.relations.Load(),
		POIRecords:      c.poiRecs.Load(),
		WayRecords:      c.wayRecs.Load(),
		RelationRecords: c.relRecs.Load(),
		Areas:           c.area.Load(),
	}, nil
}

func (c *Classifier) skip(obj osm.Object) bool {
	switch obj.(type) {
	case *osm.Node:
		return c.cfg.SkipNodes
	case *osm.Way:
		return c.cfg.SkipWays
	case *osm.Relation:
		return c.cfg.SkipRelations
	}
	return true
}

// worker classifies entities from the objects channel. Each worker owns its
// own Lua state when a filter script is configured.
func (c *Classifier) worker(ctx context.Context, objects <-chan osm.Object, results chan<- result) error {
	var hook *script.Runtime
	if c.cfg.ScriptFile != "" {
		hook = script.New(c.log)
		defer hook.Close()
		if err := hook.LoadFile(c.cfg.ScriptFile); err != nil {
			return err
		}
	}

	for obj := range objects {
		var res result
		switch o := obj.(type) {
		case *osm.Node:
			c.nodes.Add(1)
			rec, ok := c.classifyNode(o, hook)
			if !ok {
				continue
			}
			res.poi = rec
		case *osm.Way:
			c.ways.Add(1)
			rec, ok := c.classifyWay(o, hook)
			if !ok {
				continue
			}
			res.way = rec
		case *osm.Relation:
			c.relations.Add(1)
			rec, ok := c.classifyRelation(o, hook)
			if !ok {
				continue
			}
			res.rel = rec
		default:
			continue
		}

		select {
		case results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// classifyNode produces a POI record for nodes with at least one known POI tag
func (c *Classifier) classifyNode(n *osm.Node, hook *script.Runtime) (*POIRecord, bool) {
	if hook != nil && !hook.KeepNode(int64(n.ID), n.Tags) {
		return nil, false
	}
	ids := tagextract.KnownPOITags(c.mapping, n.Tags)
	if len(ids) == 0 {
		return nil, false
	}
	return &POIRecord{
		ID:     int64(n.ID),
		TagIDs: ids,
		Fields: tagextract.SpecialFields(n.ElementID(), n.Tags, c.cfg.PreferredLanguage, c.log),
	}, true
}

// classifyWay produces a way record for ways with at least one known way tag.
// The area heuristic only applies to closed rings; open ways are always
// linear.
func (c *Classifier) classifyWay(w *osm.Way, hook *script.Runtime) (*WayRecord, bool) {
	if hook != nil && !hook.KeepWay(int64(w.ID), w.Tags) {
		return nil, false
	}
	ids := tagextract.KnownWayTags(c.mapping, w.Tags)
	if len(ids) == 0 {
		return nil, false
	}
	return &WayRecord{
		ID:     int64(w.ID),
		TagIDs: ids,
		Fields: tagextract.SpecialFields(w.ElementID(), w.Tags, c.cfg.PreferredLanguage, c.log),
		IsArea: isClosed(w) && tagextract.IsArea(w.Tags),
	}, true
}

// classifyRelation produces a record for any tagged relation
func (c *Classifier) classifyRelation(r *osm.Relation, hook *script.Runtime) (*RelationRecord, bool) {
	if hook != nil && !hook.KeepRelation(int64(r.ID), r.Tags) {
		return nil, false
	}
	if len(r.Tags) == 0 {
		return nil, false
	}
	return &RelationRecord{
		ID:     int64(r.ID),
		Fields: tagextract.SpecialFields(r.ElementID(), r.Tags, c.cfg.PreferredLanguage, c.log),
	}, true
}

// isClosed reports whether the way is a ring with enough nodes for an area
func isClosed(w *osm.Way) bool {
	return len(w.Nodes) >= 4 && w.Nodes[0].ID == w.Nodes[len(w.Nodes)-1].ID
}

func (c *Classifier) write(res result) error {
	switch {
	case res.poi != nil:
		c.poiRecs.Add(1)
		return c.sink.WritePOI(*res.poi)
	case res.way != nil:
		c.wayRecs.Add(1)
		if res.way.IsArea {
			c.area.Add(1)
		}
		return c.sink.WriteWay(*res.way)
	case res.rel != nil:
		c.relRecs.Add(1)
		return c.sink.WriteRelation(*res.rel)
	}
	return nil
}

func (c *Classifier) reportProgress(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.log.Debug("Classification progress",
				zap.Int64("nodes", c.nodes.Load()),
				zap.Int64("ways", c.ways.Load()),
				zap.Int64("relations", c.relations.Load()),
			)
		}
	}
}
