package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/warp/census-engine/census"
	"github.com/warp/census-engine/importer"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		dryRun bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "import members|sir|booths|houses FILE",
		Short: "Import a .xlsx or .csv sheet",
		Long: `Import runs one sheet through a workflow:

  members   add residents, recording re-spelled names as aliases
  sir       apply corrections from an updated roll, scoped by booth
  booths    assign polling booths by voter ID or SEC roll number
  houses    attach house surveys to families by family name

With --dry-run the sheet runs against the database inside one
transaction that is rolled back at the end, so the summary matches a
real import and nothing is written.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(importer.KindMembers), string(importer.KindSIR), string(importer.KindBooths), string(importer.KindHouses)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := importer.ParseKind(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			var sum census.Summary
			if dryRun {
				sum, err = a.importDryRun(cmd, kind, filepath.Base(args[1]), f)
			} else {
				sum, err = a.importFile(cmd, kind, filepath.Base(args[1]), f)
			}
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), format, sum)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what the import would do, then roll it back")
	cmd.Flags().StringVarP(&format, "output", "o", "text", "summary format: text or yaml")
	return cmd
}

func (a *app) importFile(cmd *cobra.Command, kind importer.Kind, name string, r io.Reader) (census.Summary, error) {
	db, err := a.openStore()
	if err != nil {
		return census.Summary{}, err
	}
	defer db.Close()

	run, sum, err := importer.New(a.engine(db), a.columns, db, a.log).ImportFile(cmd.Context(), kind, name, r)
	if err != nil {
		return sum, err
	}
	a.log.Info("import run saved", "run_id", run.ID, "status", run.Status)
	return sum, nil
}

func (a *app) importDryRun(cmd *cobra.Command, kind importer.Kind, name string, r io.Reader) (census.Summary, error) {
	rows, err := importer.ReadSheet(r, name)
	if err != nil {
		return census.Summary{}, fmt.Errorf("read %s: %w", name, err)
	}
	db, err := a.openStore()
	if err != nil {
		return census.Summary{}, err
	}
	defer db.Close()

	var sum census.Summary
	err = db.DryRun(cmd.Context(), func(tx census.TxStore) error {
		sum = importer.New(a.engine(tx), a.columns, nil, a.log).Run(cmd.Context(), kind, rows)
		return nil
	})
	return sum, err
}

type summaryOutput struct {
	Created int         `yaml:"created"`
	Updated int         `yaml:"updated"`
	Skipped int         `yaml:"skipped"`
	Failed  int         `yaml:"failed"`
	Aliases int         `yaml:"aliases"`
	Aborted bool        `yaml:"aborted"`
	Errors  []rowOutput `yaml:"errors,omitempty"`
}

type rowOutput struct {
	Line   int    `yaml:"line"`
	Reason string `yaml:"reason"`
	Error  string `yaml:"error"`
}

func printSummary(w io.Writer, format string, sum census.Summary) error {
	out := summaryOutput{
		Created: sum.Created,
		Updated: sum.Updated,
		Skipped: sum.Skipped,
		Failed:  sum.Failed,
		Aliases: sum.Aliases,
		Aborted: sum.Aborted,
	}
	for _, e := range sum.Errors {
		out.Errors = append(out.Errors, rowOutput{Line: e.Line, Reason: e.Reason, Error: fmt.Sprint(e.Err)})
	}

	switch format {
	case "yaml":
		b, err := yaml.Marshal(out)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case "text", "":
		fmt.Fprintf(w, "created: %d  updated: %d  skipped: %d  failed: %d  aliases: %d\n",
			out.Created, out.Updated, out.Skipped, out.Failed, out.Aliases)
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  row %d %s: %s\n", e.Line, e.Reason, e.Error)
		}
		if out.Aborted {
			fmt.Fprintln(w, "aborted before the end of the sheet")
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
