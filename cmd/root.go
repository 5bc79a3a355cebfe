// Package cmd implements the evtariff command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evtariff/app"
	"github.com/kilianp07/evtariff/config"
	"github.com/kilianp07/evtariff/core/pricing"
	"github.com/kilianp07/evtariff/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "evtariff",
	Short:         "EV charging tariff resolution and pricing cache",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the invalidation listener, periodic sweep and metrics endpoint",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// openEngine loads the configuration and builds an engine. Logs go to the
// command's stderr so stdout only carries results.
func openEngine(cmd *cobra.Command) (*app.Engine, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Configure(cfg.Logging.Level, cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	return app.New(commandContext(cmd), cfg)
}

func closeEngine(cmd *cobra.Command, e *app.Engine) {
	if err := e.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "engine close: %v\n", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine(cmd, e)
	logger.New("main").Infof("evtariff running")
	return e.Run(ctx)
}

type requestFlags struct {
	station   string
	connector string
	client    string
	power     float64
}

func addRequestFlags(cmd *cobra.Command, f *requestFlags) {
	cmd.Flags().StringVarP(&f.station, "station", "s", "", "station identifier")
	cmd.Flags().StringVar(&f.connector, "connector", "", "connector type, empty for any")
	cmd.Flags().StringVar(&f.client, "client", "", "client id, empty for anonymous")
	cmd.Flags().Float64Var(&f.power, "power", 0, "charging power in kW")
	_ = cmd.MarkFlagRequired("station")
}

func (f *requestFlags) request(cmd *cobra.Command) pricing.Request {
	req := pricing.Request{StationID: f.station, ConnectorType: f.connector, ClientID: f.client}
	if cmd.Flags().Changed("power") {
		p := f.power
		req.PowerKW = &p
	}
	return req
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
