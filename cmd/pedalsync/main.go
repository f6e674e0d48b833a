package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pedalsync",
	Short: "Storefront catalog synchronization service",
	Long: `pedalsync keeps the commerce platform's products and collections in step
with the retailer's spreadsheet exports, uploading referenced media to the CMS
library along the way. Run it as a server or fire a single sync from the CLI.`,
}

func init() {
	rootCmd.AddCommand(serveCmd, syncCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
