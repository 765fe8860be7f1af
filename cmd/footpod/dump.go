package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lucasjlepore/footpod/fitlog"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <activity.fit>",
		Short: "Print the decoded activity-log messages as JSON lines",
		Long: `
Decodes the activity log with the same decoder the conversion uses and prints
one JSON object per message on stdout, with field values in the units the
converter reads them in (km, km/h, degrees).
`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read activity: %w", err)
			}
			log, err := fitlog.Decode(data, fitlog.Options{SkipCRC: a.cfg.SkipCRC})
			if err != nil {
				return fmt.Errorf("decode activity: %w", err)
			}
			for _, w := range log.Warnings {
				a.logger.Warn("activity log", "warning", w)
			}
			if id := fitlog.ProjectFileID(data); id != nil {
				a.logger.Info("file id",
					"type", id.Type,
					"manufacturer", id.Manufacturer,
					"product", id.Product,
					"serial", id.SerialNumber,
					"created", id.TimeCreated)
			}
			a.logger.Info("decoded activity",
				"messages", humanize.Comma(int64(len(log.Messages))),
				"definitions", log.DefinitionCount,
				"size", humanize.Bytes(uint64(len(data))),
				"kinds", log.Kinds())
			return log.WriteJSONL(a.stdout)
		},
	}
}
