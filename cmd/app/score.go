package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"ShopScore/internal/di"
	"ShopScore/internal/usecase"

	"github.com/spf13/cobra"
)

func scoreCmd() *cobra.Command {
	var (
		p           usecase.ProductReportParams
		threshold   float64
		reliability float64
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Evaluate one product and print the report",
		Long:  `Evaluate a catalog product for a destination pin code and print the full report as JSON.`,
		Example: `  shopscore score --product "Apple iPhone" --pin 560001
  shopscore score --product "Cricket Bat" --pin 400001 --platform eBay --weight 1.2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(strings.TrimSpace(p.Destination)) < 5 {
				return fmt.Errorf("--pin must have at least 5 characters")
			}
			if cmd.Flags().Changed("threshold") {
				if threshold < 0 || threshold > 1 {
					return fmt.Errorf("--threshold must be within [0, 1]")
				}
				p.Threshold = &threshold
			}
			if cmd.Flags().Changed("reliability-weight") {
				p.Reliability = &reliability
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// stdout carries the report
			if cfg.Logger.Output == "" || cfg.Logger.Output == "stdout" {
				cfg.Logger.Output = "stderr"
			}
			r, err := di.InitializeReporter(cfg)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer r.Close()

			p.SkipCache = true
			report, err := r.Reports.Evaluate(cmd.Context(), p)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&p.Product, "product", "", "catalog product name")
	cmd.Flags().StringVar(&p.Destination, "pin", "", "destination pin code")
	cmd.Flags().StringVar(&p.Platform, "platform", "", "platform to score (default: first in the data)")
	cmd.Flags().Float64Var(&p.WeightKg, "weight", 0, "shipment weight in kg (default from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "fake-review probability threshold (default from config)")
	cmd.Flags().IntVar(&p.Horizon, "horizon", 0, "forecast horizon in days (default from config)")
	cmd.Flags().Float64Var(&reliability, "reliability-weight", 0, "override the platform reliability weight")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}

func productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, p := range cfg.Data.Products {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-20s %s\n", p.Name, p.Category, p.File)
			}
			return nil
		},
	}
}
