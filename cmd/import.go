package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadscope/internal/importer"
)

var (
	importAccount string
	importFile    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import leads from a CSV or XLSX file",
	Long: `Import reads lead rows from a spreadsheet and inserts them under an
account. Columns are matched to lead fields by name ("Contact Email" and
"contact_email" both map); unrecognized columns are ignored.

Examples:
  import --account acct_123 --file leads.csv
  import --account acct_123 --file leads.xlsx`,
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importAccount, "account", "", "account id (required)")
	f.StringVar(&importFile, "file", "", "path to a .csv or .xlsx file (required)")
	_ = importCmd.MarkFlagRequired("account")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	im := importer.New(s, cfg.Import.MaxConcurrent)

	var created int
	switch strings.ToLower(filepath.Ext(importFile)) {
	case ".csv":
		created, err = im.ImportCSV(ctx, importAccount, importFile)
	case ".xlsx":
		created, err = im.ImportXLSX(ctx, importAccount, importFile)
	default:
		return eris.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(importFile))
	}
	if err != nil {
		return err
	}

	fmt.Printf("imported %d lead(s) into %s\n", created, importAccount)
	return nil
}
