package main

import (
	"context"

	"github.com/spf13/cobra"

	"pedalhouse/internal/config"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Destructively delete remote state",
}

var resetProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Delete all remote products and variants",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		runID, err := p.Runs.Start("reset")
		if err != nil {
			return err
		}
		sum, err := p.Products.Reset(context.Background(), runID)
		if err != nil {
			_ = p.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
			return err
		}
		total := sum.ProductsDeleted + sum.ProductsFailed + sum.VariantsDeleted + sum.VariantsFailed
		_ = p.Runs.Finish(runID, "completed", total,
			sum.ProductsDeleted+sum.VariantsDeleted, sum.ProductsFailed+sum.VariantsFailed, "")
		printJSON(sum)
		return nil
	},
}

var resetCollectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Delete all remote collections (children before parents)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}
		runID, err := p.Runs.Start("collections")
		if err != nil {
			return err
		}
		sum, err := p.Collections.DeleteAll(context.Background(), runID)
		if err != nil {
			_ = p.Runs.Finish(runID, "failed", 0, 0, 0, err.Error())
			return err
		}
		_ = p.Runs.Finish(runID, "completed", sum.Deleted+sum.Failed, sum.Deleted, sum.Failed, "")
		printJSON(sum)
		return nil
	},
}

func init() {
	resetCmd.AddCommand(resetProductsCmd, resetCollectionsCmd)
}
