package config

import (
	"errors"
	"fmt"
	"os"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	yaml "gopkg.in/yaml.v2"
)

// reading config error is fatal, and exits main thread
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func readFile(cfg *Configuration, path string) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// everything can come from env and flags
			return
		}
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		processError(err)
	}
}

func readEnv(cfg *Configuration) {
	err := envconfig.Process("", cfg)
	if err != nil {
		processError(err)
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = DEFAULT_HTTP_PORT
	}
	if cfg.NX.Confirmations == 0 {
		cfg.NX.Confirmations = DEFAULT_CONFIRMATIONS
	}
	if cfg.NX.MaxBlockBatch == 0 {
		cfg.NX.MaxBlockBatch = DEFAULT_MAX_BLOCK_BATCH
	}
	if cfg.NX.PollIntervalSec == 0 {
		cfg.NX.PollIntervalSec = DEFAULT_POLL_INTERVAL_SEC
	}
	if cfg.REVO.Binary == "" {
		cfg.REVO.Binary = DEFAULT_REVO_BINARY
	}
	if cfg.REVO.GasPrices == "" {
		cfg.REVO.GasPrices = DEFAULT_GAS_PRICES
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = "file"
	}
	if cfg.State.FilePath == "" {
		cfg.State.FilePath = DEFAULT_STATE_FILE
	}
}

func Init(path string) {
	if path == "" {
		path = "config.yml"
	}
	readFile(&Config, path)
	readEnv(&Config)
	applyDefaults(&Config)
}

// Validate checks the startup invariants after flags have been merged
// in. Any failure here must abort the process with a non-zero exit.
func Validate(cfg *Configuration) error {
	if len(cfg.NX.RPCList) == 0 {
		return errors.New("no nxchain RPC endpoint configured")
	}
	if cfg.NX.BridgeAddress == "" {
		return errors.New("bridge address is required")
	}
	if err := ethav.Validate(cfg.NX.BridgeAddress); err != nil {
		return fmt.Errorf("invalid bridge address %q: %w", cfg.NX.BridgeAddress, err)
	}
	if cfg.NX.NextepContract == "" {
		return errors.New("NEXTEP contract address is required")
	}
	if err := ethav.Validate(cfg.NX.NextepContract); err != nil {
		return fmt.Errorf("invalid NEXTEP contract address %q: %w", cfg.NX.NextepContract, err)
	}
	if cfg.REVO.ChainID == "" {
		return errors.New("REVO chain id is required")
	}
	if cfg.REVO.RPCURL == "" {
		return errors.New("REVO RPC URL is required")
	}
	if cfg.REVO.KeyName == "" && cfg.REVO.SignerURL == "" {
		return errors.New("either a signing key name or a remote signer URL is required")
	}
	price, err := decimal.NewFromString(cfg.REVO.PriceUSD)
	if err != nil {
		return fmt.Errorf("invalid REVO price %q: %w", cfg.REVO.PriceUSD, err)
	}
	if price.Sign() <= 0 {
		return errors.New("REVO price must be greater than zero")
	}
	if cfg.State.Backend != "file" && cfg.State.Backend != "redis" {
		return fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
	if cfg.State.Backend == "redis" && cfg.State.RedisHost == "" {
		return errors.New("redis state backend requires a redis host")
	}
	return nil
}
