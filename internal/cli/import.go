package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/driverledger/internal/domain/models"
	"github.com/mamadbah2/driverledger/internal/service/importer"
	"github.com/mamadbah2/driverledger/internal/service/reporting"
)

type importRunner interface {
	Defaults() importer.Options
	Import(ctx context.Context, input importer.Input, opts importer.Options, dryRun bool) (models.ImportReport, error)
	ImportSheet(ctx context.Context, reader importer.SheetReader, sheetRange string, opts importer.Options, dryRun bool) (models.ImportReport, error)
}

var importFlags = []StringFlag{
	{Name: "policy", Usage: "allocation policy: proportional, max-earner or daily-report"},
	{Name: "delimiter", Usage: "column delimiter: auto, tab, comma, semicolon or space"},
	{Name: "layout", Usage: "column layout (e.g. date,Uber,Didi,Otros,hours)"},
	{Name: "date-order", Usage: "slash date order: DMY or MDY"},
	{Name: "placeholder", Usage: "platform used for hours without earnings"},
}

var importCmd = LeafCommand{
	Use:   "import <file>",
	Short: "Import historical shifts from an xlsx, csv, tsv, txt or json file",
	Long:  "Import historical shifts. Use - to read pasted text from stdin.",
	Args:  cobra.ExactArgs(1),
	BoolFlags: []BoolFlag{
		{Name: "dry-run", Usage: "parse and report without writing"},
		{Name: "json", Usage: "print the report as JSON"},
		{Name: "skip-header", Default: true, Usage: "skip a leading header row"},
	},
	StrFlags: append([]StringFlag{
		{Name: "sheet", Usage: "worksheet name for xlsx files (default: first sheet)"},
	}, importFlags...),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		asJSON, _ := cmd.Flags().GetBool("json")
		sheet, _ := cmd.Flags().GetString("sheet")

		data, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		svc, err := rt.importService(commandContext(cmd), dryRun)
		if err != nil {
			return err
		}
		return runImport(cmd, svc, args[0], data, sheet, overridesFromFlags(cmd), dryRun, asJSON)
	},
}.Build()

func runImport(
	cmd *cobra.Command,
	svc importRunner,
	name string,
	data []byte,
	sheet string,
	overrides importer.Overrides,
	dryRun, asJSON bool,
) error {
	input, err := importer.InputFromFile(name, data, sheet)
	if err != nil {
		return err
	}

	opts, err := svc.Defaults().Apply(overrides)
	if err != nil {
		return err
	}

	report, err := svc.Import(commandContext(cmd), input, opts, dryRun)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report, asJSON)
}

func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func overridesFromFlags(cmd *cobra.Command) importer.Overrides {
	var ov importer.Overrides
	ov.Policy, _ = cmd.Flags().GetString("policy")
	ov.Delimiter, _ = cmd.Flags().GetString("delimiter")
	ov.Layout, _ = cmd.Flags().GetString("layout")
	ov.DateOrder, _ = cmd.Flags().GetString("date-order")
	ov.Placeholder, _ = cmd.Flags().GetString("placeholder")
	if cmd.Flags().Changed("skip-header") {
		skip, _ := cmd.Flags().GetBool("skip-header")
		ov.SkipHeader = &skip
	}
	return ov
}

func printReport(w io.Writer, report models.ImportReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	title := "import " + report.RunID
	if report.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, Primary(title))
	fmt.Fprintf(w, "parsed %d, written %d, rejected %d\n", report.Parsed, report.Written, len(report.Rejected))
	fmt.Fprintf(w, "totals: earnings %s, hours %s, km %s\n",
		Info(reporting.FormatAmount(report.Totals.Earnings)),
		strconv.FormatFloat(report.Totals.Hours, 'f', -1, 64),
		strconv.FormatFloat(report.Totals.Km, 'f', -1, 64))

	for _, r := range report.Rejected {
		fmt.Fprintf(w, "  %s %s %s\n", Error(fmt.Sprintf("line %d:", r.Line)), r.Reason, Silent(r.Raw))
	}
	return nil
}
