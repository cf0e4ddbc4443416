package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/stockpilot/internal/core"
)

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import products from a CSV file, or a JSON array when FILE ends in .json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var result core.ImportResult
			if strings.EqualFold(filepath.Ext(args[0]), ".json") {
				var records []core.ImportRecord
				if err := json.NewDecoder(f).Decode(&records); err != nil {
					return &core.ValidationError{Message: "invalid json: " + err.Error()}
				}
				result, err = a.service.ImportRecords(ctx, records)
			} else {
				result, err = a.service.ImportCSV(ctx, f)
			}
			if err != nil {
				return err
			}

			renderImportResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every product as CSV to stdout or a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if output == "" {
				return a.service.WriteExport(ctx, cmd.OutOrStdout())
			}
			if info, err := os.Stat(output); err == nil && info.IsDir() {
				output = filepath.Join(output, core.ExportFilename(time.Now()))
			}

			data, err := a.service.Export(ctx)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default stdout)")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	var category, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print products, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var products []core.Product
			if cmd.Flags().Changed("search") {
				products, err = a.service.Search(ctx, search)
			} else {
				products, err = a.service.List(ctx, category)
			}
			if err != nil {
				return err
			}

			renderProducts(cmd.OutOrStdout(), products)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only products in this category (exact match)")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive name substring")
	cmd.MarkFlagsMutuallyExclusive("category", "search")
	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Print a product's stock changes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return &core.ValidationError{Field: "id", Value: args[0], Message: "must be a positive integer"}
			}

			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.service.Get(ctx, id)
			if err != nil {
				return err
			}
			logs, err := a.service.History(ctx, id)
			if err != nil {
				return err
			}

			renderHistory(cmd.OutOrStdout(), p, logs)
			return nil
		},
	}
}
