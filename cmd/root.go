package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/chargewindow/app"
	"github.com/kilianp07/chargewindow/config"
	coremon "github.com/kilianp07/chargewindow/core/monitoring"
	"github.com/kilianp07/chargewindow/infra/logger"
	"github.com/kilianp07/chargewindow/infra/monitoring"
	"github.com/kilianp07/chargewindow/pkg/export"
)

const defaultConfigPath = "config.yaml"

var (
	cfgPath    string
	envFile    string
	cfg        *config.Config
	dateFlag   string
	dryRun     bool
	exportPath string
	chartPath  string
)

var rootCmd = &cobra.Command{
	Use:   "chargewindow [YYYY-MM-DD]",
	Short: "Program an OpenEVSE charger for the cheapest hourly-priced window",
	Long: `Fetches ComEd day-ahead hourly prices, finds the cheapest contiguous charging
window and programs the charger timer over RAPI. Planning for an explicit date
only prints the window and never writes to the charger.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: setup,
	RunE:              run,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	rootCmd.Flags().StringVarP(&dateFlag, "date", "d", "", "plan the horizon ending on this day without touching the charger")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan for today but do not program the charger")
	rootCmd.Flags().StringVarP(&exportPath, "export", "o", "", "write the plan to a .json, .yaml, .csv or .html file")
	rootCmd.Flags().StringVar(&chartPath, "chart", "", "write an HTML price chart to this file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	path := cfgPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newService() (*app.Service, func(), error) {
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
		coremon.Flush(2 * time.Second)
	}
	return svc, closer, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	if len(args) == 1 {
		if dateFlag != "" {
			return fmt.Errorf("date given twice")
		}
		dateFlag = args[0]
	}

	svc, closer, err := newService()
	if err != nil {
		return err
	}
	defer closer()

	req := app.Request{Apply: !dryRun}
	if dateFlag != "" {
		d, err := time.ParseInLocation(time.DateOnly, dateFlag, svc.Location())
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateFlag)
		}
		req.Date = d
	}

	out, err := svc.Plan(ctx, req)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Time window: %s %s\n",
		out.Plan.Window.Start.Format(time.DateTime), out.Plan.Window.End.Format(time.DateTime))
	fmt.Fprintf(w, "Schedule: %s (%d minutes, average price %.3f)\n", out.Schedule, out.Plan.Minutes, out.Plan.AveragePrice)
	if out.Set != nil {
		if out.Set.Changed {
			fmt.Fprintf(w, "Charger updated: %s -> %s\n", out.Set.Previous, out.Set.Ack)
		} else {
			fmt.Fprintf(w, "Charger already programmed: %s\n", out.Set.Previous)
		}
	}

	report := export.NewReport(out.RunID, out.TargetDate, out.Plan, out.Points, out.Applied)
	if exportPath != "" {
		if err := export.WriteFile(exportPath, report); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	if chartPath != "" {
		if err := export.WriteChartFile(chartPath, report); err != nil {
			return fmt.Errorf("chart: %w", err)
		}
	}
	return nil
}
