package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucasjlepore/footpod"
	"github.com/lucasjlepore/footpod/config"
	"github.com/lucasjlepore/footpod/pipeline"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, v: config.New()}

	cmd := &cobra.Command{
		Use:   "footpod <activity.fit> <route.tcx>",
		Short: "Place a footpod-only run on its planned route",
		Long: `
Reads an activity log recorded without satellite positioning and a TCX course
of the route that was run, and writes a TCX activity whose trackpoints are
placed on the course by their recorded distance.

The document goes to stdout unless --output names a file. Settings can also
come from --config and from FOOTPOD_* environment variables.

Examples:

  footpod run.fit course.tcx > run.tcx
  footpod -o run.tcx --samples run.parquet --summary run.fit course.tcx
`,
		Args:              cobra.ExactArgs(2),
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.convert,
	}
	cmd.SetErr(stderr)
	config.RegisterGlobalFlags(cmd.PersistentFlags())
	config.RegisterFlags(cmd.Flags())

	cmd.AddCommand(newDumpCmd(a), newConfigCmd(a))
	return cmd
}

// setup resolves the configuration and installs the logger. Usage is only
// printed for argument errors, which cobra reports before this runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(a.v, path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) convert(_ *cobra.Command, args []string) error {
	res, err := pipeline.Run(pipeline.Options{
		ActivityPath:  args[0],
		RoutePath:     args[1],
		OutputPath:    a.cfg.Output,
		Stdout:        a.stdout,
		Overwrite:     a.cfg.Overwrite,
		SkipCRC:       a.cfg.SkipCRC,
		SamplesPath:   a.cfg.Samples,
		SamplesFormat: a.cfg.SamplesFormat,
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}
	if a.cfg.Summary {
		fmt.Fprintln(a.stderr, footpod.BuildNotes(res.Summary))
	}
	return nil
}
