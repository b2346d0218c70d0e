package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

// Batch transform over already-finalized snapshots: reads the combined
// wallet USD values and writes the REVO allocation per wallet at a
// fixed REVO price. No chain access and no recovery semantics.

type combinedData struct {
	Metadata map[string]interface{} `json:"metadata"`
	Wallets  map[string]walletValue `json:"wallets"`
}

type walletValue struct {
	USDValue string `json:"usd_value"`
}

type distribution struct {
	Metadata distributionMetadata  `json:"metadata"`
	Wallets  map[string]walletRevo `json:"wallets"`
}

type distributionMetadata struct {
	TotalWallets    int    `json:"total_wallets"`
	TotalUSDValue   string `json:"total_usd_value"`
	RevoPriceUSD    string `json:"revo_price_usd"`
	TotalRevoTokens string `json:"total_revo_tokens"`
}

type walletRevo struct {
	USDValue   string `json:"usd_value"`
	RevoTokens string `json:"revo_tokens"`
}

func main() {
	app := cli.NewApp()
	app.Name = "distribution"
	app.Usage = "Calculate REVO token distribution based on wallet USD values"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "input", Usage: "Path to the combined wallet data file", Required: true},
		&cli.StringFlag{Name: "output", Usage: "Output file path for REVO distribution data", Required: true},
		&cli.StringFlag{Name: "revo-price", Usage: "Price of the REVO token in USD", Required: true},
		&cli.StringFlag{Name: "min-usd", Usage: "Minimum USD value to include in the distribution", Value: "0"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cCtx *cli.Context) error {
	revoPrice, err := decimal.NewFromString(cCtx.String("revo-price"))
	if err != nil || revoPrice.Sign() <= 0 {
		return cli.Exit("REVO price must be greater than zero", 1)
	}
	minUSD, err := decimal.NewFromString(cCtx.String("min-usd"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid min-usd value: %v", err), 1)
	}

	combined, err := loadCombinedData(cCtx.String("input"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	result, err := calculateDistribution(combined, revoPrice, minUSD)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Printf("REVO Price: $%s\n", revoPrice.String())
	fmt.Printf("Total Wallets: %d\n", result.Metadata.TotalWallets)
	fmt.Printf("Total USD Value: $%s\n", result.Metadata.TotalUSDValue)
	fmt.Printf("Total REVO Tokens: %s\n", result.Metadata.TotalRevoTokens)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := os.WriteFile(cCtx.String("output"), data, 0o644); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func loadCombinedData(path string) (*combinedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading combined wallet data from %s: %w", path, err)
	}
	var combined combinedData
	if err := json.Unmarshal(data, &combined); err != nil {
		return nil, fmt.Errorf("parsing combined wallet data: %w", err)
	}
	if combined.Metadata == nil || combined.Wallets == nil {
		return nil, errors.New("invalid data structure: metadata and wallets are required")
	}
	return &combined, nil
}

func calculateDistribution(combined *combinedData, revoPrice, minUSD decimal.Decimal) (*distribution, error) {
	result := &distribution{Wallets: map[string]walletRevo{}}
	totalUSD := decimal.Zero
	totalRevo := decimal.Zero

	for address, wallet := range combined.Wallets {
		usdValue, err := decimal.NewFromString(wallet.USDValue)
		if err != nil {
			return nil, fmt.Errorf("invalid usd_value for wallet %s: %w", address, err)
		}
		if usdValue.LessThan(minUSD) {
			continue
		}

		revoTokens := usdValue.DivRound(revoPrice, 28)
		result.Wallets[address] = walletRevo{
			USDValue:   usdValue.String(),
			RevoTokens: revoTokens.String(),
		}
		totalUSD = totalUSD.Add(usdValue)
		totalRevo = totalRevo.Add(revoTokens)
	}

	result.Metadata = distributionMetadata{
		TotalWallets:    len(result.Wallets),
		TotalUSDValue:   totalUSD.String(),
		RevoPriceUSD:    revoPrice.String(),
		TotalRevoTokens: totalRevo.String(),
	}
	return result, nil
}
