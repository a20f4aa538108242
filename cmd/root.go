package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Taciturno11/API-Digitalizacion/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "digitalizacion",
	Short: "Digitalización CLI - SUNAT invoice extraction engine",
	Long: `Digitalización CLI converts Peruvian electronic invoices into one
canonical structured record, whatever the source document looks like.

Supported inputs are PDFs with a text layer, UBL 2.1 XML documents and
scanned raster images (PNG/JPEG, processed with local OCR).`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Digitalización CLI executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
