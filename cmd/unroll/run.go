package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mu-bmd-unroll/internal/batch"
	"mu-bmd-unroll/internal/bmd"
	"mu-bmd-unroll/internal/config"
	"mu-bmd-unroll/internal/gridmap"
	"mu-bmd-unroll/internal/logging"
	"mu-bmd-unroll/internal/texture"
)

// errFilesFailed makes the process exit with status 1 after the report is
// written.
var errFilesFailed = errors.New("some files failed")

// maxListedFailures caps the failures printed at the end of a run.
const maxListedFailures = 20

// setup loads the configuration and builds the logger, codec and mapper
// shared by the subcommands.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, bmd.Codec, *gridmap.Mapper, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return cfg, nil, bmd.Codec{}, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return cfg, nil, bmd.Codec{}, nil, err
	}
	key, err := cfg.Key()
	if err != nil {
		return cfg, nil, bmd.Codec{}, nil, err
	}
	opts, err := cfg.MapperOptions()
	if err != nil {
		return cfg, nil, bmd.Codec{}, nil, err
	}
	return cfg, log, bmd.Codec{LEAKey: key}, gridmap.New(opts, log), nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [files or directories...]",
		Short: "Unroll every selected mesh and write models, textures, previews and report.json",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, codec, mapper, err := setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			files, err := batch.Collect(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				log.Info("no BMD files found")
				return nil
			}

			bc := batch.Config{
				OutputDir:     cfg.OutputDir,
				Codec:         codec,
				OutputVersion: cfg.OutputVersion,
				Mapper:        mapper,
				Preview:       cfg.Format(),
				PreviewSize:   cfg.PreviewSize,
				Supersample:   cfg.Supersample,
				Bake:          cfg.Bake,
				BakePadding:   cfg.BakePadding,
				Meshes:        cfg.Meshes,
				SkipOverlays:  cfg.SkipOverlays,
				Faces:         cfg.Faces,
				Workers:       cfg.Workers,
				Log:           log,
			}
			if len(cfg.TextureDirs) > 0 {
				idx := texture.BuildIndex(cfg.TextureDirs...)
				bc.TexResolver = texture.NewCache(idx, log)
				log.Info("textures indexed", zap.Int("count", idx.Len()))
			}

			log.Info("starting",
				zap.Int("files", len(files)),
				zap.Int("workers", cfg.Workers),
				zap.String("output", cfg.OutputDir),
				zap.Stringer("metric", mapper.Options().Metric),
				zap.Stringer("widths", mapper.Options().Widths),
			)
			results := batch.Run(bc, files)

			reportPath := filepath.Join(cfg.OutputDir, "report.json")
			if err := batch.WriteReport(reportPath, results); err != nil {
				log.Warn("report not written", zap.Error(err))
			}

			t := batch.Summarize(results)
			fmt.Fprintf(cmd.OutOrStdout(), "Files: %s/%s written, islands: %s mapped, %s failed, texcoords added: %s\n",
				humanize.Comma(int64(t.Files-t.FailedFiles)), humanize.Comma(int64(t.Files)),
				humanize.Comma(int64(t.MappedIslands)), humanize.Comma(int64(t.FailedIslands)),
				humanize.Comma(int64(t.TexcoordsAdded)))
			fmt.Fprintf(cmd.OutOrStdout(), "Report: %s\n", reportPath)

			if t.FailedFiles == 0 {
				return nil
			}
			listed := 0
			for _, r := range results {
				if r.Success {
					continue
				}
				if listed == maxListedFailures {
					fmt.Fprintf(cmd.OutOrStdout(), "  ... and %d more\n", t.FailedFiles-listed)
					break
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", r.File, r.Error)
				listed++
			}
			return errors.Wrapf(errFilesFailed, "%d of %d", t.FailedFiles, t.Files)
		},
	}
}
