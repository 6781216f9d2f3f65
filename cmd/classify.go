package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/tagprep/internal/loader"
	"github.com/wegman-software/tagprep/internal/logger"
	"github.com/wegman-software/tagprep/internal/metrics"
	"github.com/wegman-software/tagprep/internal/parquet"
	"github.com/wegman-software/tagprep/internal/pipeline"
	"github.com/wegman-software/tagprep/internal/tagmap"
)

var toDB bool

var classifyCmd = &cobra.Command{
	Use:   "classify <input.osm.pbf>",
	Short: "Classify OSM tags from PBF into Parquet or PostgreSQL",
	Long: `Parse an OSM PBF file in parallel and classify every entity's tags.

This stage produces:
  - pois.parquet      (id, tag_ids, name, ref, housenumber, layer, elevation)
  - ways.parquet      (same columns plus is_area)
  - relations.parquet (id, relation_type, name, ref)

With --to-db the records are loaded into PostgreSQL tables instead.`,
	Args: cobra.ExactArgs(1),
	Run:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVarP(&cfg.MappingFile, "mapping", "m", "", "Tag mapping YAML file (default: built-in vocabulary)")
	classifyCmd.Flags().StringVarP(&cfg.PreferredLanguage, "lang", "l", "", "Preferred two-letter language code for names (e.g. de)")
	classifyCmd.Flags().StringVar(&cfg.ScriptFile, "script", "", "Lua filter script with keep_node/keep_way/keep_relation callbacks")
	classifyCmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Rows per Parquet row group / COPY batch")
	classifyCmd.Flags().BoolVar(&cfg.SkipNodes, "skip-nodes", false, "Skip node classification")
	classifyCmd.Flags().BoolVar(&cfg.SkipWays, "skip-ways", false, "Skip way classification")
	classifyCmd.Flags().BoolVar(&cfg.SkipRelations, "skip-relations", false, "Skip relation classification")
	classifyCmd.Flags().BoolVar(&toDB, "to-db", false, "Load records into PostgreSQL instead of Parquet files")
}

func runClassify(cmd *cobra.Command, args []string) {
	cfg.InputFile = args[0]
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	mapping, err := loadMapping()
	if err != nil {
		exitWithError("failed to load tag mapping", err)
	}
	log.Info("Tag mapping ready",
		zap.Int("poi_tags", mapping.PoiCount()),
		zap.Int("way_tags", mapping.WayCount()),
	)

	ctx := context.Background()

	var sink pipeline.Sink
	if toDB {
		sink, err = loader.NewSink(ctx, cfg)
	} else {
		sink, err = parquet.NewSink(cfg.OutputDir, cfg.BatchSize)
	}
	if err != nil {
		exitWithError("failed to create sink", err)
	}

	// System metrics in the background for the duration of the run
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	collector := metrics.NewCollector(cfg.MetricsInterval, log)
	go collector.Start(metricsCtx)

	log.Info("Starting classification",
		zap.String("input", cfg.InputFile),
		zap.String("language", cfg.PreferredLanguage),
		zap.Int("workers", cfg.Workers),
		zap.Bool("to_db", toDB),
	)

	start := time.Now()

	stats, err := pipeline.New(cfg, mapping, sink).Run(ctx)
	stopMetrics()
	if err != nil {
		sink.Close()
		exitWithError("classification failed", err)
	}
	if err := sink.Close(); err != nil {
		exitWithError("failed to finalize output", err)
	}

	elapsed := time.Since(start)

	log.Info("Classification complete",
		zap.Duration("duration", elapsed.Round(time.Second)),
		zap.Int64("nodes", stats.Nodes),
		zap.Int64("ways", stats.Ways),
		zap.Int64("relations", stats.Relations),
		zap.Int64("poi_records", stats.POIRecords),
		zap.Int64("way_records", stats.WayRecords),
		zap.Int64("relation_records", stats.RelationRecords),
		zap.Int64("areas", stats.Areas),
	)
}

func loadMapping() (*tagmap.Mapping, error) {
	if cfg.MappingFile != "" {
		return tagmap.Load(cfg.MappingFile)
	}
	return tagmap.Default(), nil
}
