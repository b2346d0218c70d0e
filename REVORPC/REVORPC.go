package REVORPC

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os/exec"
	"strings"
)

var (
	ErrAmountNonPositive = errors.New("mint amount must be greater than zero")
	ErrSubmission        = errors.New("mint submission failed")
)

// MintClient is the destination-chain submission capability. Backends
// are interchangeable (local revod binary, remote signer); none of
// them is assumed idempotent — crediting a deposit at most once is the
// ledger's job, not the mint call's.
type MintClient interface {
	Mint(ctx context.Context, recipient string, amount *big.Int) (txHash string, err error)
}

// CLIClient submits mints through the revod binary with a local key.
type CLIClient struct {
	Binary    string
	KeyName   string
	ChainID   string
	NodeURL   string
	Denom     string
	GasPrices string
}

func (c *CLIClient) Mint(ctx context.Context, recipient string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() <= 0 {
		return "", ErrAmountNonPositive
	}

	args := []string{
		"tx", "bank", "send",
		c.KeyName,
		recipient,
		amount.String() + c.Denom,
		"--chain-id", c.ChainID,
		"--node", c.NodeURL,
		"--gas", "auto",
		"--gas-adjustment", "1.4",
		"--gas-prices", c.GasPrices,
		"--yes",
	}

	log.Printf("Minting %s%s to %s", amount.String(), c.Denom, recipient)

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s exited: %v: %s", ErrSubmission, c.Binary, err, strings.TrimSpace(stderr.String()))
	}

	txHash, err := parseTxHash(stdout.String())
	if err != nil {
		return "", err
	}

	log.Printf("Mint submitted for %s (tx: %s)", recipient, txHash)
	return txHash, nil
}

// parseTxHash pulls the transaction hash out of revod's
// "txhash: <HASH>" output line.
func parseTxHash(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(trimmed), "txhash") {
			continue
		}
		_, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		txHash := strings.Trim(strings.TrimSpace(value), `"`)
		if txHash != "" {
			return txHash, nil
		}
	}
	return "", fmt.Errorf("%w: no transaction hash in output: %s", ErrSubmission, strings.TrimSpace(output))
}
