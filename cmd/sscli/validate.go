package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"switching-insights-go/internal/validation"
)

var validateStrict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check extract integrity and reconcile against the demo reference",
	Long: `validate runs the integrity checks (unique ids, classification, periods) and
reconciles headline counts against the 161-row demo reference. Integrity
failures exit non-zero; reconciliation failures only do so with --strict.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		v, err := svc.Validation(product)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d rows, %d insurers, periods %d-%d\n",
			product, v.Summary.TotalRows, v.Summary.Insurers, v.Summary.FirstPeriod, v.Summary.LastPeriod)
		printReport(out, "Integrity", v.Integrity)
		printReport(out, "Reconciliation", v.Reconciliation)

		if !v.Integrity.OK() {
			return errors.New("integrity checks failed")
		}
		if validateStrict && !v.Reconciliation.OK() {
			return errors.New("reconciliation checks failed")
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "fail on reconciliation differences")
	rootCmd.AddCommand(validateCmd)
}

func printReport(w io.Writer, title string, r validation.Report) {
	fmt.Fprintf(w, "%s: %d passed, %d failed\n", title, r.Passed, r.Failed)
	for _, c := range r.Checks {
		status := "PASS"
		if !c.Pass {
			status = "FAIL"
		}
		line := fmt.Sprintf("  %s %-42s expected=%g actual=%g", status, c.Name, c.Expected, c.Actual)
		if c.Detail != "" {
			line += " (" + c.Detail + ")"
		}
		fmt.Fprintln(w, line)
	}
}
