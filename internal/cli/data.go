package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"exhibitcore/internal/projection"
	"exhibitcore/internal/transfer"
	"exhibitcore/pkg/domain"
)

func exportCmd(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every exhibit as a portable JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if out == "" {
				return a.service.Export(cmd.Context(), cmd.OutOrStdout())
			}
			if out == "." {
				out = transfer.ExportFilename(time.Now().In(a.location))
			}
			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) // #nosec G304 -- operator supplied path
			if err != nil {
				return err
			}
			if err := a.service.Export(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file; "." uses exhibits_YYYY-MM-DD.json, empty writes to stdout`)
	return cmd
}

func importCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace every exhibit with the contents of an export file",
		Long:  "Replace every exhibit with the contents of an export file. Use - to read standard input.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0]) // #nosec G304 -- operator supplied path
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			a, err := openApp(cmd.Context(), *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			imported, err := a.service.Import(cmd.Context(), transfer.LimitReader(in, a.cfg.HTTP.MaxImportBytes))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d exhibits\n", len(imported))
			return nil
		},
	}
}

func statsCmd(configPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection and exploitation counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.service.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Total\t%d\n", stats.Total)
			fmt.Fprintf(tw, "Collected\t%d\n", stats.Collected)
			fmt.Fprintf(tw, "Pending\t%d\n", stats.Pending)
			fmt.Fprintf(tw, "Exploited\t%d\n", stats.Exploited)
			fmt.Fprintf(tw, "Unexploited\t%d\n", stats.Unexploited)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func listCmd(configPath *string) *cobra.Command {
	var (
		search, status, remarks, station, sortField, order string
		asJSON                                             bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exhibits with optional search, filters and sort",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := projection.ParseQuery(search, status, remarks, station, sortField, order)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			exhibits, err := a.service.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), exhibits)
			}
			return writeTable(cmd.OutOrStdout(), exhibits)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&search, "q", "q", "", "case-insensitive text search")
	f.StringVar(&status, "status", "", `collection status filter ("Collected", "Not Collected" or "all")`)
	f.StringVar(&remarks, "remarks", "", `remarks filter ("Exploited", "Unexploited" or "all")`)
	f.StringVar(&station, "station", "", "exact station filter")
	f.StringVar(&sortField, "sort", "", "sort field, optionally with order suffix (e.g. serialNumber-asc)")
	f.StringVar(&order, "order", "", "sort order (asc or desc)")
	f.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, exhibits []domain.Exhibit) error {
	if len(exhibits) == 0 {
		_, err := fmt.Fprintln(w, "(no exhibits found)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIAL\tRECEIVED\tSTATION\tREMARKS\tSTATUS\tACCUSED")
	for _, e := range exhibits {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.SerialNumber, e.DateReceived, e.Station, e.Remarks, e.CollectionStatus, e.AccusedPerson)
	}
	return tw.Flush()
}
