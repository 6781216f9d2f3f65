package cmd

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/tagprep/internal/logger"
	"github.com/wegman-software/tagprep/internal/tagmap"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping [mapping.yaml]",
	Short: "Validate and describe a tag mapping file",
	Long: `Load a tag mapping YAML file, validate it and report the size of the
POI and way vocabularies. Without an argument, describes the built-in
default mapping.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runMapping,
}

func init() {
	rootCmd.AddCommand(mappingCmd)
}

func runMapping(cmd *cobra.Command, args []string) {
	log := logger.Get()

	var (
		m      *tagmap.Mapping
		err    error
		source = "built-in"
	)
	if len(args) == 1 {
		source = args[0]
		m, err = tagmap.Load(args[0])
		if err != nil {
			exitWithError("invalid tag mapping", err)
		}
	} else {
		m = tagmap.Default()
	}

	log.Info("Tag mapping is valid",
		zap.String("source", source),
		zap.Int("poi_tags", m.PoiCount()),
		zap.Int("way_tags", m.WayCount()),
	)
}
