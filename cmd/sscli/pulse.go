package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"switching-insights-go/internal/dashboard"
	"switching-insights-go/internal/narrative"
)

var (
	pulseOpts queryOpts
	pulseJSON bool
)

var pulseCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Print the headline shopping and switching figures",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := pulseOpts.query()
		if err != nil {
			return err
		}
		svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		p, err := svc.MarketPulse(q)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if pulseJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		}
		printPulse(out, p)
		return nil
	},
}

func init() {
	pulseOpts.register(pulseCmd)
	pulseCmd.Flags().BoolVar(&pulseJSON, "json", false, "print the full payload as JSON")
	rootCmd.AddCommand(pulseCmd)
}

func printPulse(w io.Writer, p *dashboard.Pulse) {
	who := "Market"
	if p.Insurer != "" {
		who = p.Insurer
	}
	fmt.Fprintf(w, "%s (%s): n=%s, %s\n", who, p.Product, narrative.FormatCount(p.Banner.N), p.Banner.Label)

	row := func(label string, v dashboard.Value) {
		shown := narrative.FormatPct(v.Value)
		if v.Display.Message != nil {
			shown += "  " + *v.Display.Message
		}
		fmt.Fprintf(w, "  %-18s %s\n", label, shown)
	}
	h := p.Headline
	row("Shopping rate", h.Shopping)
	row("Switching rate", h.Switching)
	row("Shop & stay", h.ShopAndStay)
	row("PCW usage", h.PCWUsage)
	row("Retention", h.Retention)
	row("Conversion", h.Conversion)

	for _, t := range p.Trends {
		if t.Sentence != "" {
			fmt.Fprintf(w, "  %s\n", t.Sentence)
		}
	}
	if p.Comparison != nil && p.Comparison.Message != nil {
		fmt.Fprintf(w, "  %s\n", *p.Comparison.Message)
	}
	if p.Narrative != "" {
		fmt.Fprintf(w, "%s\n", p.Narrative)
	}
}
