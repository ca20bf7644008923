package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"switching-insights-go/internal/config"
	"switching-insights-go/internal/dashboard"
	"switching-insights-go/internal/dataset"
	"switching-insights-go/internal/logger"
	"switching-insights-go/internal/testkit"
)

var (
	// Global flags
	cfgFile  string
	product  string
	dataPath string
	useDemo  bool

	// Loaded configuration
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "sscli",
	Short:         "Shopping and switching survey analytics",
	Long:          `sscli computes the governed shopping, switching and retention figures from a survey extract and prints, validates or exports them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetDefaultOutput(cmd.ErrOrStderr())
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&product, "product", dashboard.Motor, "product to analyse (motor|home)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "extract path or URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&useDemo, "demo", false, "use the built-in 161-row demo extract")
}

// newService builds a dashboard service holding the selected product only.
func newService(ctx context.Context) (*dashboard.Service, error) {
	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	log := logger.New()
	svc := dashboard.New(engine, dashboard.Settings{
		TopN:             cfg.Flow.TopN,
		ProxyFloor:       cfg.Proxy.MinSample,
		TimeWindowMonths: cfg.Filter.TimeWindowMonths,
		Confidence:       cfg.Intervals.Confidence,
		PriorStrength:    cfg.Intervals.PriorStrength,
	}, dataset.NewFetcher(cfg.FetchTimeout(), cfg.FetchMaxElapsed()), log)

	if useDemo {
		svc.SetRows(product, testkit.DemoRows())
		return svc, nil
	}

	src := dashboard.Source{Product: product}
	switch {
	case dataPath != "" && dataset.IsRemote(dataPath):
		src.URL = dataPath
	case dataPath != "":
		src.Path = dataPath
	case product == dashboard.Home:
		src.Path, src.URL = cfg.Data.HomePath, cfg.Data.HomeURL
	default:
		src.Path, src.URL = cfg.Data.MotorPath, cfg.Data.MotorURL
	}
	if err := svc.LoadAll(ctx, []dashboard.Source{src}); err != nil {
		return nil, err
	}
	if _, err := svc.Rows(product); err != nil {
		return nil, fmt.Errorf("no data for %s: %w", product, err)
	}
	return svc, nil
}

// queryOpts are the population flags shared by the screen commands.
type queryOpts struct {
	insurer     string
	ageBand     string
	region      string
	paymentType string
	window      int
	topN        int
}

func (o *queryOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.insurer, "insurer", "", "insurer to compare against the market")
	cmd.Flags().StringVar(&o.ageBand, "age-band", "", "age band filter")
	cmd.Flags().StringVar(&o.region, "region", "", "region filter")
	cmd.Flags().StringVar(&o.paymentType, "payment-type", "", "payment type filter")
	cmd.Flags().IntVar(&o.window, "window", 0, "most recent renewal months to include (0 uses config)")
	cmd.Flags().IntVar(&o.topN, "top-n", 0, "brands shown in flow breakdowns (0 uses config)")
}

func (o *queryOpts) query() (dashboard.Query, error) {
	if o.window < 0 || o.topN < 0 {
		return dashboard.Query{}, fmt.Errorf("--window and --top-n must not be negative")
	}
	return dashboard.Query{
		Product: product,
		Insurer: o.insurer,
		Filter: dataset.Filter{
			AgeBand:          o.ageBand,
			Region:           o.region,
			PaymentType:      o.paymentType,
			TimeWindowMonths: o.window,
		},
		TopN: o.topN,
	}, nil
}
