package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"switching-insights-go/internal/logger"
	"switching-insights-go/internal/report"
)

var (
	exportOpts queryOpts
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the pulse, price, funnel and reasons screens to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := exportOpts.query()
		if err != nil {
			return err
		}
		svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}

		var r report.Report
		if r.Pulse, err = svc.MarketPulse(q); err != nil {
			return err
		}
		if r.Landscape, err = svc.Landscape(q); err != nil {
			return err
		}
		if r.Journey, err = svc.Journey(q); err != nil {
			return err
		}
		if r.Reasons, err = svc.WhyTheyMove(q); err != nil {
			return err
		}
		if err := report.Save(exportOut, r); err != nil {
			return err
		}

		logger.New().Component("cli.export").
			WithField("out", exportOut).
			WithField("product", q.Product).
			WithField("insurer", q.Insurer).
			Info("report written")
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", exportOut)
		return nil
	},
}

func init() {
	exportOpts.register(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "report.xlsx", "output workbook path")
	rootCmd.AddCommand(exportCmd)
}
