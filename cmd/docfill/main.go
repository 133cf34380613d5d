package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/dstrick/docfill/pkg/docfill"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "docfill",
		Short: "DOCX template filling engine",
		Long: `Docfill fills Word templates by replacing {{TOKEN}} placeholders
with values, embedded images, and structured sections, even when Word
has fragmented the placeholders across formatting runs.

It runs either as a one-shot command over local files or as an HTTP
service backed by a blob store.`,
		Version: version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(fillCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cfg := docfill.ConfigFromEnvironment()
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP fill service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				loaded, err := docfill.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			docfill.SetGlobalConfig(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := docfill.NewFileStore(cfg.StoreRoot)
			server := docfill.NewServer(cfg, store)
			return server.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides environment)")
	cfg.AddFlags(cmd.Flags())

	return cmd
}

func fillCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "fill <template.docx>",
		Short: "Fill a template from local files",
		Long: `Fill reads a DOCX template and a JSON input file and writes the
filled document. The input file uses the same shape as the HTTP API:

  {
    "placeholders": {"LOAN_AMOUNT": "$1,000,000"},
    "images": {"IMAGE_SITE_PLAN": "<base64>"}
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading template: %w", err)
			}

			var req docfill.FillRequest
			if inputPath != "" {
				data, err := os.ReadFile(inputPath)
				if err != nil {
					return fmt.Errorf("reading input file: %w", err)
				}
				if err := json.Unmarshal(data, &req); err != nil {
					return fmt.Errorf("parsing input file: %w", err)
				}
			}

			doc, err := docfill.FillDocument(template, req.Placeholders, req.Images)
			if doc == nil {
				return err
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: fill completed with errors: %v\n", err)
			}

			if err := os.WriteFile(outputPath, doc, 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			fmt.Printf("wrote %s (%d bytes)\n", outputPath, len(doc))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON file with placeholders and images")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "filled.docx", "Output document path")

	return cmd
}
