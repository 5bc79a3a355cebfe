package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evtariff/pkg/export"
)

var (
	scheduleFlags  requestFlags
	scheduleFormat string
	scheduleOutput string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Preview today's rates at representative hours",
	RunE:  runSchedule,
}

func init() {
	addRequestFlags(scheduleCmd, &scheduleFlags)
	scheduleCmd.Flags().StringVarP(&scheduleFormat, "format", "f", "json", "output format: json, csv or html")
	scheduleCmd.Flags().StringVarP(&scheduleOutput, "output", "o", "", "output file, stdout when empty")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	switch scheduleFormat {
	case "json", "csv", "html":
	default:
		return fmt.Errorf("unsupported format %q", scheduleFormat)
	}
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine(cmd, e)

	sched := e.Project(commandContext(cmd), scheduleFlags.request(cmd))

	var w io.Writer = cmd.OutOrStdout()
	if scheduleOutput != "" {
		f, err := os.Create(scheduleOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return export.Write(w, scheduleFormat, sched)
}
