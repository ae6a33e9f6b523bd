package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/retention/internal/adapters/export"
	service "github.com/okian/retention/internal/app"
	"github.com/okian/retention/internal/domain/filter"
	"github.com/okian/retention/internal/domain/ordering"
	"github.com/okian/retention/pkg/errs"
	"github.com/okian/retention/pkg/logger"
)

type exportFlags struct {
	out    string
	search string
	risk   string
	age    string
	credit string
	sort   string
}

func newExportCmd() *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch predictions once and write the filtered, sorted rows as CSV",
		Example: `  retention export --risk high --sort amount
  retention export --out - --age senior`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file, - for stdout (default <export_prefix>_YYYY-MM-DD.csv)")
	cmd.Flags().StringVarP(&f.search, "query", "q", "", "search customer id or income level")
	cmd.Flags().StringVar(&f.risk, "risk", filter.All, "risk tier: all, high, medium, low")
	cmd.Flags().StringVar(&f.age, "age", filter.All, "age group: all, young, middle, senior")
	cmd.Flags().StringVar(&f.credit, "credit", filter.All, "credit grade prefix or all")
	cmd.Flags().StringVar(&f.sort, "sort", string(ordering.ByRisk), "sort key: risk, age, credit, amount")
	return cmd
}

func (f exportFlags) query() (service.Query, error) {
	q := service.DefaultQuery()
	c, err := filter.Normalize(filter.Criteria{
		Search: strings.TrimSpace(f.search),
		Risk:   f.risk,
		Age:    f.age,
		Credit: f.credit,
	})
	if err != nil {
		return q, errs.Wrap("main.exportFlags.query", err)
	}
	q.Criteria = c
	q.Sort, _ = ordering.ParseKey(f.sort)
	return q, nil
}

func runExport(ctx context.Context, stdout io.Writer, f exportFlags) error {
	log := logger.Get()

	q, err := f.query()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Refresh(ctx); err != nil {
		return errs.Wrap("main.runExport", err)
	}

	var w io.Writer = stdout
	path := f.out
	var file *os.File
	if path != "-" {
		if path == "" {
			path = export.Filename(cfg.ExportPrefix, time.Now())
		}
		file, err = os.Create(path)
		if err != nil {
			return errs.Wrap("main.runExport", err)
		}
		w = file
	}

	n, err := svc.Export(ctx, w, q)
	if file != nil {
		err = closeWritten(file, err)
	}
	if err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(stdout, "wrote %d rows to %s\n", n, path)
	}
	return nil
}

// closeWritten closes a file that was written to. A close failure is
// returned unless the write already failed.
func closeWritten(c io.Closer, err error) error {
	cerr := c.Close()
	if err != nil {
		return err
	}
	if cerr != nil {
		return errs.Wrap("main.closeWritten", cerr)
	}
	return nil
}
