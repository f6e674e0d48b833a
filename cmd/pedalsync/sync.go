package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pedalhouse/internal/config"
	"pedalhouse/internal/transform"
	"pedalhouse/internal/validate"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a synchronization once and exit",
}

func addSheetFlag(fs *pflag.FlagSet) {
	fs.String("sheet-url", "", "override the configured sheet export URL")
}

func resolveSheetURL(cmd *cobra.Command, configured string) (string, error) {
	raw, _ := cmd.Flags().GetString("sheet-url")
	if raw == "" {
		raw = configured
	}
	u, ok := validate.SheetURL(raw)
	if !ok {
		return "", fmt.Errorf("missing or invalid sheet URL (set --sheet-url or the env default)")
	}
	return u, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

var syncProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Sync products from the spreadsheet export",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		srcURL, err := resolveSheetURL(cmd, cfg.ProductsSheetURL)
		if err != nil {
			return err
		}

		runID, err := p.Runs.Start("products")
		if err != nil {
			return err
		}
		ctx := context.Background()
		rows, err := p.Sheets.Fetch(ctx, srcURL)
		if err != nil {
			_ = p.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
			return err
		}
		groups, err := transform.GroupProducts(rows, transform.DefaultColumns(), runID)
		if err != nil {
			_ = p.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
			return err
		}
		sum, err := p.Products.Sync(ctx, runID, groups)
		if err != nil {
			_ = p.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
			return err
		}
		_ = p.Runs.Finish(runID, "completed", sum.TotalProducts, sum.SuccessfulProducts, sum.FailedProducts, "")
		printJSON(sum)
		return nil
	},
}

var syncCollectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Sync collections from the spreadsheet export",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		srcURL, err := resolveSheetURL(cmd, cfg.CollectionsSheetURL)
		if err != nil {
			return err
		}

		runID, err := p.Runs.Start("collections")
		if err != nil {
			return err
		}
		ctx := context.Background()
		rows, err := p.Sheets.Fetch(ctx, srcURL)
		if err != nil {
			_ = p.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
			return err
		}
		specs, err := transform.GroupCollections(rows, transform.DefaultColumns(), runID)
		if err != nil {
			_ = p.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
			return err
		}
		sum, err := p.Collections.Sync(ctx, runID, specs)
		if err != nil {
			_ = p.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
			return err
		}
		_ = p.Runs.Finish(runID, "completed", sum.TotalCollections, sum.Created+sum.Existing, sum.Failed, "")
		printJSON(sum)
		return nil
	},
}

func init() {
	addSheetFlag(syncProductsCmd.Flags())
	addSheetFlag(syncCollectionsCmd.Flags())
	syncCmd.AddCommand(syncProductsCmd, syncCollectionsCmd)
}
