package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/iisfilter/internal/filter"
	"github.com/atikulmunna/iisfilter/internal/logger"
	"github.com/atikulmunna/iisfilter/internal/output"
	"github.com/atikulmunna/iisfilter/internal/processor"
	"github.com/atikulmunna/iisfilter/internal/source"
	"github.com/atikulmunna/iisfilter/internal/stats"
)

func runFilter(cmd *cobra.Command, v *viper.Viper) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	log := logger.New(stderr, v.GetString("log-level"), v.GetBool("log-json"))

	cfg := filter.NewConfig(
		v.GetInt("time-taken"),
		v.GetStringSlice("exclusion-filter"),
		v.GetStringSlice("inclusion-filter"),
		v.GetBool("short"),
	)

	// --- Choose renderer ---
	var renderer output.Renderer
	switch strings.ToLower(v.GetString("output")) {
	case "text", "":
		renderer = output.NewTextRenderer(stdout)
	case "json":
		renderer = output.NewJSONRenderer(stdout)
	default:
		return &usageError{fmt.Errorf("unknown output format %q", v.GetString("output"))}
	}

	// --- Open input ---
	files := v.GetStringSlice("file")
	follow := v.GetBool("follow")
	if follow && len(files) == 0 {
		return &usageError{errors.New("--follow needs --file")}
	}

	src, closeSrc, err := openInput(cmd.Context(), files, follow, cmd.InOrStdin(), log)
	if err != nil {
		var ue *usageError
		if errors.As(err, &ue) {
			return err
		}
		// Unreadable input ends the run without output, not as a failure.
		log.Error().Err(err).Msg("cannot read input")
		return nil
	}
	defer closeSrc()

	log.Debug().
		Int("time_taken", cfg.TimeTaken).
		Strs("exclusion", cfg.Exclusion).
		Strs("inclusion", cfg.Inclusion).
		Bool("short", cfg.Compact).
		Msg("filter configured")

	// --- Run ---
	counter := stats.New()
	runErr := processor.New(cfg, renderer, counter).Run(src)

	if v.GetBool("stats") {
		if err := output.NewSummaryRenderer(stderr).Render(counter.Snapshot()); err != nil {
			log.Warn().Err(err).Msg("summary not written")
		}
	}

	return reportRunError(log, runErr)
}

// reportRunError logs the outcome of a run. Data and write errors are fatal;
// source errors terminate the run normally.
func reportRunError(log zerolog.Logger, err error) error {
	if err == nil {
		return nil
	}

	var de *processor.DataError
	var we *processor.WriteError
	switch {
	case errors.As(err, &de):
		log.Error().
			Err(de.Err).
			Str("source", de.Source).
			Int("line", de.Line).
			Str("text", de.Text).
			Msg("aborting on malformed data line")
		return err
	case errors.As(err, &we):
		log.Error().Err(we.Err).Msg("aborting, output not writable")
		return err
	default:
		log.Error().Err(err).Msg("input error")
		return nil
	}
}

// openInput resolves the line source: stdin, a sequence of files, or a
// single followed file.
func openInput(ctx context.Context, patterns []string, follow bool, stdin io.Reader, log zerolog.Logger) (source.LineSource, func(), error) {
	if len(patterns) == 0 {
		return source.NewReader(stdin, source.StdinName), func() {}, nil
	}

	paths, err := source.Expand(patterns)
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Strs("paths", paths).Msg("input resolved")

	if follow {
		if len(paths) != 1 {
			return nil, nil, &usageError{fmt.Errorf("--follow needs exactly one file, %d matched", len(paths))}
		}
		fl, err := source.NewFollower(ctx, paths[0], log)
		if err != nil {
			return nil, nil, err
		}
		return fl, func() { fl.Close() }, nil
	}

	c := source.NewConcat(paths)
	return c, func() { c.Close() }, nil
}
