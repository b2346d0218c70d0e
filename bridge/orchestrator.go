package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"gorevobridge/REVORPC"
	"gorevobridge/config"
	"gorevobridge/metrics"
	"gorevobridge/oracle"
	"gorevobridge/types"
)

// PriceSource supplies current USD prices for the source assets.
// oracle.Client satisfies it.
type PriceSource interface {
	FetchPrices(ctx context.Context) (oracle.Prices, error)
}

type Params struct {
	BridgeAddress  common.Address
	NextepContract common.Address
	Confirmations  uint64
	MaxBlockBatch  uint64
	PollInterval   time.Duration

	RevoPrice decimal.Decimal
	// initial source-asset prices; pinned prices are never refreshed
	CXSPrice     decimal.Decimal
	NextepPrice  decimal.Decimal
	CXSPinned    bool
	NextepPinned bool
}

// Orchestrator drives the poll cycle: compute the scan window behind
// the confirmation margin, scan, decode, valuate, mint, record,
// persist, sleep. It runs strictly sequentially; the mutex only
// guards price reads from the status API.
type Orchestrator struct {
	params  Params
	chain   ChainReader
	scanner *Scanner
	decoder *Decoder
	ledger  *Ledger
	minter  REVORPC.MintClient
	prices  PriceSource

	mu          sync.Mutex
	cxsPrice    decimal.Decimal
	nextepPrice decimal.Decimal
	started     time.Time
}

func NewOrchestrator(params Params, chain ChainReader, ledger *Ledger, minter REVORPC.MintClient, prices PriceSource) *Orchestrator {
	return &Orchestrator{
		params:      params,
		chain:       chain,
		scanner:     NewScanner(chain),
		decoder:     NewDecoder(params.BridgeAddress, params.NextepContract),
		ledger:      ledger,
		minter:      minter,
		prices:      prices,
		cxsPrice:    params.CXSPrice,
		nextepPrice: params.NextepPrice,
	}
}

// Run polls until ctx is cancelled, then flushes the ledger and
// returns. Steady-state errors end the cycle early and are retried
// after the poll interval; they never terminate the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	o.started = time.Now()
	o.mu.Unlock()

	for ctx.Err() == nil {
		if err := o.runCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Error in bridge cycle: %s", err.Error())
		}
		metrics.CyclesTotal.Inc()

		if !o.sleep(ctx) {
			break
		}
		o.refreshPrices(ctx)
	}

	if err := o.ledger.Persist(); err != nil {
		log.Printf("Error saving bridge state on shutdown: %s", err.Error())
		return err
	}
	log.Print("Bridge process terminated gracefully")
	return nil
}

func (o *Orchestrator) runCycle(ctx context.Context) error {
	head, err := o.chain.HeadBlock(ctx)
	if err != nil {
		return fmt.Errorf("getting current block number: %w", err)
	}

	startBlock, endBlock, ok := o.computeWindow(head)
	if !ok {
		log.Printf("No new blocks to process (head %d, last processed %d)", head, o.ledger.LastBlockProcessed())
		return nil
	}

	txs, lastContiguous, err := o.scanner.ScanRange(ctx, startBlock, endBlock)
	if err != nil {
		// cancelled mid-scan; nothing advanced, the window is rescanned
		return err
	}

	deposits := o.decodeDeposits(txs)
	if len(deposits) == 0 {
		log.Printf("No deposits found in blocks %d to %d", startBlock, endBlock)
	}

	interrupted := false
	for _, deposit := range deposits {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		o.processDeposit(ctx, deposit)
	}
	if interrupted {
		// do not advance past deposits that were never looked at
		if err := o.ledger.Persist(); err != nil {
			log.Printf("Error saving bridge state: %s", err.Error())
		}
		return ctx.Err()
	}

	// Advance only through blocks that were actually fetched; a block
	// whose fetch failed is rescanned next cycle instead of being
	// skipped forever. Mint failures do not hold the watermark back —
	// those deposits are lost to the window unless it re-covers their
	// block, which mirrors the original best-effort contract.
	if lastContiguous >= startBlock {
		o.ledger.AdvanceTo(lastContiguous)
		metrics.LastBlockProcessed.Set(float64(o.ledger.LastBlockProcessed()))
	}

	if err := o.ledger.Persist(); err != nil {
		return fmt.Errorf("saving bridge state: %w", err)
	}
	return nil
}

// computeWindow keeps the scan at least Confirmations blocks behind
// the head and at most MaxBlockBatch blocks wide. ok is false on a
// no-op cycle.
func (o *Orchestrator) computeWindow(head uint64) (startBlock, endBlock uint64, ok bool) {
	if head < o.params.Confirmations {
		return 0, 0, false
	}
	safeHead := head - o.params.Confirmations

	startBlock = o.ledger.LastBlockProcessed() + 1
	endBlock = startBlock + o.params.MaxBlockBatch - 1
	if safeHead < endBlock {
		endBlock = safeHead
	}
	if startBlock > endBlock {
		return 0, 0, false
	}
	return startBlock, endBlock, true
}

func (o *Orchestrator) decodeDeposits(txs []ScannedTx) []*types.Deposit {
	var deposits []*types.Deposit
	for _, scanned := range txs {
		deposit, err := o.decoder.Decode(scanned.Tx, scanned.BlockNumber, scanned.BlockTimestamp)
		if err != nil {
			log.Printf("Error parsing transfer data: %s", err.Error())
			continue
		}
		if deposit == nil {
			continue
		}
		log.Printf("Found deposit %s: from: %s, token: %s, amount: %s",
			deposit.TxHash, deposit.FromAddress, deposit.TokenAddress, deposit.Amount.String())
		metrics.DepositsFound.Inc()
		deposits = append(deposits, deposit)
	}
	return deposits
}

func (o *Orchestrator) processDeposit(ctx context.Context, deposit *types.Deposit) {
	if o.ledger.IsProcessed(deposit.TxHash) {
		log.Printf("Transaction %s already processed. Skipping.", deposit.TxHash)
		return
	}

	revoAmount, err := o.revoAmount(deposit)
	if err != nil {
		log.Printf("Error valuating deposit %s: %s", deposit.TxHash, err.Error())
		return
	}
	if revoAmount.Sign() <= 0 {
		log.Printf("Calculated REVO amount is zero for transaction %s. Skipping.", deposit.TxHash)
		return
	}

	mintTxHash, err := o.minter.Mint(ctx, deposit.FromAddress, revoAmount)
	if err != nil {
		// left unrecorded; only retried if the window covers this block again
		log.Printf("Failed to mint REVO for transaction %s: %s", deposit.TxHash, err.Error())
		metrics.MintsFailed.Inc()
		return
	}
	metrics.MintsSucceeded.Inc()

	err = o.ledger.Record(deposit.TxHash, types.LedgerEntry{
		FromAddress:  deposit.FromAddress,
		TokenAddress: deposit.TokenAddress,
		Amount:       deposit.Amount.String(),
		RevoAmount:   revoAmount.String(),
		MintTxHash:   mintTxHash,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Error recording ledger entry for %s: %s", deposit.TxHash, err.Error())
	}
}

// revoAmount converts a deposit into REVO base units at the current
// prices.
func (o *Orchestrator) revoAmount(deposit *types.Deposit) (amount *big.Int, err error) {
	o.mu.Lock()
	cxsPrice, nextepPrice := o.cxsPrice, o.nextepPrice
	o.mu.Unlock()

	switch deposit.TokenAddress {
	case config.CXS_TOKEN_ADDRESS:
		return Convert(deposit.Amount, config.CXS_DECIMALS, cxsPrice, o.params.RevoPrice, config.REVO_DECIMALS)
	case strings.ToLower(o.params.NextepContract.Hex()):
		return Convert(deposit.Amount, config.NEXTEP_DECIMALS, nextepPrice, o.params.RevoPrice, config.REVO_DECIMALS)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAsset, deposit.TokenAddress)
	}
}

// sleep waits out the poll interval; false means ctx was cancelled.
func (o *Orchestrator) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(o.params.PollInterval):
		return true
	}
}

// refreshPrices re-reads non-pinned prices from the oracle. A fetch
// error or a non-positive price keeps the previous value; zero must
// never reach the valuation divisor.
func (o *Orchestrator) refreshPrices(ctx context.Context) {
	if o.prices == nil || (o.params.CXSPinned && o.params.NextepPinned) {
		return
	}

	fetched, err := o.prices.FetchPrices(ctx)
	if err != nil {
		log.Printf("Error refreshing prices, keeping previous: %s", err.Error())
		return
	}

	if !o.params.CXSPinned {
		if price, err := fetched.CXS(); err != nil || price.Sign() <= 0 {
			log.Print("Refreshed CXS price is invalid, keeping previous price")
		} else {
			o.mu.Lock()
			o.cxsPrice = price
			o.mu.Unlock()
		}
	}
	if !o.params.NextepPinned {
		if price, err := fetched.Nextep(); err != nil || price.Sign() <= 0 {
			log.Print("Refreshed NEXTEP price is invalid, keeping previous price")
		} else {
			o.mu.Lock()
			o.nextepPrice = price
			o.mu.Unlock()
		}
	}
}

// StateSnapshot is what the status API reports.
type StateSnapshot struct {
	Status             string `json:"status"`
	LastBlockProcessed uint64 `json:"lastBlockProcessed"`
	ProcessedCount     int    `json:"processedCount"`
	CXSPriceUSD        string `json:"cxsPriceUsd"`
	NextepPriceUSD     string `json:"nextepPriceUsd"`
	RevoPriceUSD       string `json:"revoPriceUsd"`
	UptimeSeconds      int64  `json:"uptimeSeconds"`
}

func (o *Orchestrator) Snapshot() StateSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return StateSnapshot{
		Status:             "ok",
		LastBlockProcessed: o.ledger.LastBlockProcessed(),
		ProcessedCount:     o.ledger.ProcessedCount(),
		CXSPriceUSD:        o.cxsPrice.String(),
		NextepPriceUSD:     o.nextepPrice.String(),
		RevoPriceUSD:       o.params.RevoPrice.String(),
		UptimeSeconds:      int64(time.Since(o.started).Seconds()),
	}
}

// Healthy reports whether the source chain currently answers.
func (o *Orchestrator) Healthy(ctx context.Context) error {
	_, err := o.chain.HeadBlock(ctx)
	return err
}
