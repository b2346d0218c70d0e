package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"gorevobridge/NXRPC"
	"gorevobridge/REVORPC"
	"gorevobridge/bridge"
	"gorevobridge/config"
	"gorevobridge/oracle"
	"gorevobridge/workers"
	"gorevobridge/workers/handlers"
)

const appName = "revobridge"

var (
	configFlag = cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Configuration file (default: config.yml if present)",
	}
	bridgeAddressFlag = cli.StringFlag{
		Name:    "bridge-address",
		Usage:   "Address on nxchain to monitor for deposits",
		EnvVars: []string{"BRIDGE_ADDRESS"},
	}
	nextepContractFlag = cli.StringFlag{
		Name:    "nextep-contract",
		Usage:   "NEXTEP token contract address on nxchain",
		EnvVars: []string{"NEXTEP_CONTRACT"},
	}
	nxRPCFlag = cli.StringSliceFlag{
		Name:    "nxchain-rpc",
		Usage:   "RPC endpoint URL(s) for nxchain, tried in order",
		EnvVars: []string{"NXCHAIN_RPC"},
	}
	revoRPCFlag = cli.StringFlag{
		Name:    "revo-rpc",
		Usage:   "RPC endpoint URL for the REVO chain",
		EnvVars: []string{"REVO_RPC"},
	}
	revoPriceFlag = cli.StringFlag{
		Name:    "revo-price",
		Usage:   "Price of the REVO token in USD (required, > 0)",
		EnvVars: []string{"REVO_PRICE"},
	}
	chainIDFlag = cli.StringFlag{
		Name:    "chain-id",
		Usage:   "Chain ID of the REVO chain",
		EnvVars: []string{"REVO_CHAIN_ID"},
	}
	keyNameFlag = cli.StringFlag{
		Name:    "key",
		Usage:   "Name of the revod key with minting privileges",
		EnvVars: []string{"REVO_KEY_NAME"},
	}
	signerURLFlag = cli.StringFlag{
		Name:    "signer-url",
		Usage:   "Remote signer JSON-RPC URL (used instead of the local revod key)",
		EnvVars: []string{"REVO_SIGNER_URL"},
	}
	binaryFlag = cli.StringFlag{
		Name:  "binary",
		Usage: "Name of the REVO chain binary",
	}
	cxsPriceFlag = cli.StringFlag{
		Name:  "cxs-price",
		Usage: "Override CXS price in USD (default: fetch from the oracle)",
	}
	nextepPriceFlag = cli.StringFlag{
		Name:  "nextep-price",
		Usage: "Override NEXTEP price in USD (default: fetch from the oracle)",
	}
	oracleURLFlag = cli.StringFlag{
		Name:    "oracle-url",
		Usage:   "Price oracle endpoint",
		EnvVars: []string{"PRICE_ORACLE_URL"},
	}
	stateFileFlag = cli.StringFlag{
		Name:  "state-file",
		Usage: "Path to the bridge state file",
	}
	stateBackendFlag = cli.StringFlag{
		Name:  "state-backend",
		Usage: "State backend: file or redis",
	}
	pollIntervalFlag = cli.IntFlag{
		Name:  "poll-interval",
		Usage: "Polling interval in seconds",
	}
	confirmationsFlag = cli.Uint64Flag{
		Name:  "confirmations",
		Usage: "Number of confirmations required before a block is scanned",
	}
	maxBlocksFlag = cli.Uint64Flag{
		Name:  "max-blocks",
		Usage: "Maximum number of blocks to scan in one batch",
	}
	httpPortFlag = cli.IntFlag{
		Name:  "http-port",
		Usage: "Status API port",
	}
	rpmFlag = cli.IntFlag{
		Name:  "rpm",
		Usage: "Maximum nxchain RPC requests per minute (0 = unpaced)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "Bridge for transferring CXS and NEXTEP deposits to REVO"
	app.Flags = []cli.Flag{
		&configFlag,
		&bridgeAddressFlag,
		&nextepContractFlag,
		&nxRPCFlag,
		&revoRPCFlag,
		&revoPriceFlag,
		&chainIDFlag,
		&keyNameFlag,
		&signerURLFlag,
		&binaryFlag,
		&cxsPriceFlag,
		&nextepPriceFlag,
		&oracleURLFlag,
		&stateFileFlag,
		&stateBackendFlag,
		&pollIntervalFlag,
		&confirmationsFlag,
		&maxBlocksFlag,
		&httpPortFlag,
		&rpmFlag,
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cCtx *cli.Context) error {
	log.Print("Starting CXS/NEXTEP to REVO bridge")

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return cli.Exit(fmt.Sprintf("cannot create logs directory: %v", err), 1)
	}
	f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error opening log file for writing: %v", err), 1)
	}
	defer f.Close()
	log.SetOutput(io.MultiWriter(os.Stderr, f))

	config.Init(cCtx.String(configFlag.Name))
	mergeFlags(cCtx, &config.Config)

	if err := config.Validate(&config.Config); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	cfg := &config.Config

	revoPrice, _ := decimal.NewFromString(cfg.REVO.PriceUSD)

	// resolve source-asset prices before touching the chain; a price
	// we cannot trust at startup is fatal
	var priceSource bridge.PriceSource
	if cfg.Prices.OracleURL != "" {
		priceSource = oracle.NewClient(cfg.Prices.OracleURL)
	}
	cxsPrice, cxsPinned, err := resolvePrice("CXS", cfg.Prices.CXSOverride, priceSource, oracle.Prices.CXS)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	nextepPrice, nextepPinned, err := resolvePrice("NEXTEP", cfg.Prices.NextepOverride, priceSource, oracle.Prices.Nextep)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	var store bridge.Store
	if cfg.State.Backend == "redis" {
		store = bridge.NewRedisStore(cfg.State.RedisHost, cfg.State.RedisPort)
	} else {
		store = bridge.NewFileStore(cfg.State.FilePath)
	}
	ledger, err := bridge.OpenLedger(store)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	log.Printf("Loaded bridge state: last block processed = %d, %d transactions recorded",
		ledger.LastBlockProcessed(), ledger.ProcessedCount())

	nx := NXRPC.NewClient(cfg.NX.RPCList, cfg.NX.RequestsPerMinute)
	head, err := nx.HeadBlock(context.Background())
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to connect to nxchain: %v", err), 1)
	}
	log.Printf("Connected to nxchain (current block: %d)", head)

	var minter REVORPC.MintClient
	if cfg.REVO.SignerURL != "" {
		minter = REVORPC.NewRemoteClient(cfg.REVO.SignerURL)
	} else {
		minter = &REVORPC.CLIClient{
			Binary:    cfg.REVO.Binary,
			KeyName:   cfg.REVO.KeyName,
			ChainID:   cfg.REVO.ChainID,
			NodeURL:   cfg.REVO.RPCURL,
			Denom:     config.REVO_DENOM,
			GasPrices: cfg.REVO.GasPrices,
		}
	}

	orch := bridge.NewOrchestrator(bridge.Params{
		BridgeAddress:  common.HexToAddress(cfg.NX.BridgeAddress),
		NextepContract: common.HexToAddress(cfg.NX.NextepContract),
		Confirmations:  cfg.NX.Confirmations,
		MaxBlockBatch:  cfg.NX.MaxBlockBatch,
		PollInterval:   time.Duration(cfg.NX.PollIntervalSec) * time.Second,
		RevoPrice:      revoPrice,
		CXSPrice:       cxsPrice,
		NextepPrice:    nextepPrice,
		CXSPinned:      cxsPinned,
		NextepPinned:   nextepPinned,
	}, nx, ledger, minter, priceSource)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlers.Init(orch)
	go workers.Worker_HTTP(ctx, cfg.Server.HTTPPort)

	if err := orch.Run(ctx); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

// resolvePrice returns the pinned override when given, otherwise the
// current oracle price. Either way the result must be positive.
func resolvePrice(symbol, override string, source bridge.PriceSource, pick func(oracle.Prices) (decimal.Decimal, error)) (decimal.Decimal, bool, error) {
	if override != "" {
		price, err := decimal.NewFromString(override)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("invalid %s price override %q: %w", symbol, override, err)
		}
		if price.Sign() <= 0 {
			return decimal.Zero, false, fmt.Errorf("%s price must be greater than zero", symbol)
		}
		log.Printf("Using override price for %s: $%s", symbol, price.String())
		return price, true, nil
	}

	if source == nil {
		return decimal.Zero, false, fmt.Errorf("no %s price override and no oracle URL configured", symbol)
	}
	fetched, err := source.FetchPrices(context.Background())
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to get %s price: %w", symbol, err)
	}
	price, err := pick(fetched)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to parse %s price: %w", symbol, err)
	}
	if price.Sign() <= 0 {
		return decimal.Zero, false, fmt.Errorf("%s price must be greater than zero", symbol)
	}
	log.Printf("Current %s price: $%s", symbol, price.String())
	return price, false, nil
}

func mergeFlags(cCtx *cli.Context, cfg *config.Configuration) {
	if cCtx.IsSet(bridgeAddressFlag.Name) {
		cfg.NX.BridgeAddress = cCtx.String(bridgeAddressFlag.Name)
	}
	if cCtx.IsSet(nextepContractFlag.Name) {
		cfg.NX.NextepContract = cCtx.String(nextepContractFlag.Name)
	}
	if cCtx.IsSet(nxRPCFlag.Name) {
		cfg.NX.RPCList = cCtx.StringSlice(nxRPCFlag.Name)
	}
	if cCtx.IsSet(revoRPCFlag.Name) {
		cfg.REVO.RPCURL = cCtx.String(revoRPCFlag.Name)
	}
	if cCtx.IsSet(revoPriceFlag.Name) {
		cfg.REVO.PriceUSD = cCtx.String(revoPriceFlag.Name)
	}
	if cCtx.IsSet(chainIDFlag.Name) {
		cfg.REVO.ChainID = cCtx.String(chainIDFlag.Name)
	}
	if cCtx.IsSet(keyNameFlag.Name) {
		cfg.REVO.KeyName = cCtx.String(keyNameFlag.Name)
	}
	if cCtx.IsSet(signerURLFlag.Name) {
		cfg.REVO.SignerURL = cCtx.String(signerURLFlag.Name)
	}
	if cCtx.IsSet(binaryFlag.Name) {
		cfg.REVO.Binary = cCtx.String(binaryFlag.Name)
	}
	if cCtx.IsSet(cxsPriceFlag.Name) {
		cfg.Prices.CXSOverride = cCtx.String(cxsPriceFlag.Name)
	}
	if cCtx.IsSet(nextepPriceFlag.Name) {
		cfg.Prices.NextepOverride = cCtx.String(nextepPriceFlag.Name)
	}
	if cCtx.IsSet(oracleURLFlag.Name) {
		cfg.Prices.OracleURL = cCtx.String(oracleURLFlag.Name)
	}
	if cCtx.IsSet(stateFileFlag.Name) {
		cfg.State.FilePath = cCtx.String(stateFileFlag.Name)
	}
	if cCtx.IsSet(stateBackendFlag.Name) {
		cfg.State.Backend = strings.ToLower(cCtx.String(stateBackendFlag.Name))
	}
	if cCtx.IsSet(pollIntervalFlag.Name) {
		cfg.NX.PollIntervalSec = cCtx.Int(pollIntervalFlag.Name)
	}
	if cCtx.IsSet(confirmationsFlag.Name) {
		cfg.NX.Confirmations = cCtx.Uint64(confirmationsFlag.Name)
	}
	if cCtx.IsSet(maxBlocksFlag.Name) {
		cfg.NX.MaxBlockBatch = cCtx.Uint64(maxBlocksFlag.Name)
	}
	if cCtx.IsSet(httpPortFlag.Name) {
		cfg.Server.HTTPPort = cCtx.Int(httpPortFlag.Name)
	}
	if cCtx.IsSet(rpmFlag.Name) {
		cfg.NX.RequestsPerMinute = cCtx.Int(rpmFlag.Name)
	}
}
