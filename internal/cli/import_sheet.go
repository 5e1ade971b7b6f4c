package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/driverledger/internal/repository/sheets"
	"github.com/mamadbah2/driverledger/internal/service/importer"
	"github.com/mamadbah2/driverledger/pkg/logger"
)

var importSheetCmd = LeafCommand{
	Use:   "import-sheet <range>",
	Short: "Import historical shifts from a Google Sheets range (e.g. Historial!A:E)",
	Args:  cobra.ExactArgs(1),
	BoolFlags: []BoolFlag{
		{Name: "dry-run", Usage: "parse and report without writing"},
		{Name: "json", Usage: "print the report as JSON"},
		{Name: "skip-header", Default: true, Usage: "skip a leading header row"},
	},
	StrFlags: importFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		asJSON, _ := cmd.Flags().GetBool("json")

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.close()

		if !rt.cfg.Sheets.Enabled() {
			return errors.New("google sheets is not configured: set GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID")
		}

		ctx := commandContext(cmd)
		reader, err := sheets.NewGoogleSheetRepository(ctx, rt.cfg.Sheets, logger.Named(rt.logger, "repo.sheets"))
		if err != nil {
			return err
		}

		svc, err := rt.importService(ctx, dryRun)
		if err != nil {
			return err
		}
		return runImportSheet(cmd, svc, reader, args[0], overridesFromFlags(cmd), dryRun, asJSON)
	},
}.Build()

func runImportSheet(
	cmd *cobra.Command,
	svc importRunner,
	reader importer.SheetReader,
	sheetRange string,
	overrides importer.Overrides,
	dryRun, asJSON bool,
) error {
	if err := sheets.ValidateRange(sheetRange); err != nil {
		return err
	}

	opts, err := svc.Defaults().Apply(overrides)
	if err != nil {
		return err
	}

	report, err := svc.ImportSheet(commandContext(cmd), reader, sheetRange, opts, dryRun)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report, asJSON)
}
