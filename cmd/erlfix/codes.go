package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"erlfix/internal/diag"
	"erlfix/internal/diagnostics"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List diagnostic codes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		rows := collectCodes()
		switch strings.ToLower(format) {
		case "pretty":
			return renderCodesTable(cmd.OutOrStdout(), rows)
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}
	},
}

func init() {
	codesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type codeRow struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Flags []string `json:"flags,omitempty"`
}

var oracleCodes = []diag.Code{
	diag.OracleUnknown,
	diag.OracleIncompatibleTypes,
	diag.OracleOverloadedSpec,
	diag.OracleFixme,
	diag.OracleIgnore,
	diag.OracleNowarn,
}

func collectCodes() []codeRow {
	rules := diagnostics.DefaultRegistry().All()
	rows := make([]codeRow, 0, len(rules)+len(oracleCodes))
	for _, d := range rules {
		var flags []string
		if d.Conditions.Experimental {
			flags = append(flags, "experimental")
		}
		if d.Conditions.DefaultDisabled {
			flags = append(flags, "disabled")
		}
		if d.Conditions.IncludeTests {
			flags = append(flags, "tests")
		}
		if d.Conditions.IncludeGenerated {
			flags = append(flags, "generated")
		}
		rows = append(rows, codeRow{ID: d.Code.ID(), Name: d.Code.Name(), Title: d.Code.Title(), Flags: flags})
	}
	for _, c := range oracleCodes {
		rows = append(rows, codeRow{ID: c.ID(), Name: c.Name(), Title: c.Title(), Flags: []string{"oracle"}})
	}
	return rows
}

func renderCodesTable(out io.Writer, rows []codeRow) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tDESCRIPTION\tFLAGS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Title, strings.Join(r.Flags, ","))
	}
	return tw.Flush()
}
