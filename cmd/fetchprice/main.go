package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"gorevobridge/oracle"
)

// Small helper around the price oracle: prints the current CXS and
// NEXTEP prices and optionally snapshots them to a JSON file.
func main() {
	app := cli.NewApp()
	app.Name = "fetchprice"
	app.Usage = "Fetch current CXS and NEXTEP prices in USD"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Usage:    "Price oracle endpoint",
			EnvVars:  []string{"PRICE_ORACLE_URL"},
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Save prices to a file",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output file path (default: cxs_price_TIMESTAMP.json)",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cCtx *cli.Context) error {
	client := oracle.NewClient(cCtx.String("url"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prices, err := client.FetchPrices(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cxs, err := prices.CXS()
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid CXS price %q: %v", prices.CXSPriceUSD, err), 1)
	}
	nextep, err := prices.Nextep()
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid NEXTEP price %q: %v", prices.NextepPriceUSD, err), 1)
	}

	fmt.Println("\n=== Current Prices ===")
	fmt.Printf("CXS: %s USD\n", oracle.FormatUSD(cxs))
	fmt.Printf("NEXTEP: %s USD\n", oracle.FormatUSD(nextep))
	fmt.Println("=====================")

	if !cCtx.Bool("save") {
		return nil
	}

	output := cCtx.String("output")
	if output == "" {
		output = fmt.Sprintf("cxs_price_%s.json", time.Now().Format("20060102_150405"))
	}

	prices.Timestamp = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(prices, "", "  ")
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Printf("Saved prices to %s\n", output)
	return nil
}
