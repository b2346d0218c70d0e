package config

type Configuration struct {
	// Server config
	Server struct {
		HTTPPort int `yaml:"http_port"`
	} `yaml:"server"`
	// nxchain-related config (source chain)
	NX struct {
		RPCList           []string `yaml:"rpc_list"`
		BridgeAddress     string   `yaml:"bridge_address"`
		NextepContract    string   `yaml:"nextep_contract"`
		Confirmations     uint64   `yaml:"confirmations"`
		MaxBlockBatch     uint64   `yaml:"max_block_batch"`
		PollIntervalSec   int      `yaml:"poll_interval_sec"`
		RequestsPerMinute int      `yaml:"requests_per_minute"`
	} `yaml:"NX"`
	// REVO-related config (destination chain)
	REVO struct {
		Binary    string `yaml:"binary"`
		RPCURL    string `yaml:"rpc_url"`
		ChainID   string `yaml:"chain_id"`
		GasPrices string `yaml:"gas_prices"`
		PriceUSD  string `yaml:"price_usd"`
		// important private stuff
		KeyName   string `yaml:"key_name"`
		SignerURL string `yaml:"signer_url"`
	} `yaml:"REVO"`
	Prices struct {
		OracleURL      string `yaml:"oracle_url"`
		CXSOverride    string `yaml:"cxs_override"`
		NextepOverride string `yaml:"nextep_override"`
	} `yaml:"prices"`
	State struct {
		Backend   string `yaml:"backend"` // "file" or "redis"
		FilePath  string `yaml:"file_path"`
		RedisHost string `yaml:"redis_host"`
		RedisPort int    `yaml:"redis_port"`
	} `yaml:"state"`
}

var Config Configuration

// native CXS is represented by the zero address in deposits and ledger entries
const CXS_TOKEN_ADDRESS = "0x0000000000000000000000000000000000000000"

const (
	CXS_DECIMALS    = 18
	NEXTEP_DECIMALS = 18
	REVO_DECIMALS   = 18
)

const REVO_DENOM = "arevo"

const (
	DEFAULT_POLL_INTERVAL_SEC = 60
	DEFAULT_CONFIRMATIONS     = 12
	DEFAULT_MAX_BLOCK_BATCH   = 100
	DEFAULT_STATE_FILE        = "bridge_state.json"
	DEFAULT_REVO_BINARY       = "revod"
	DEFAULT_GAS_PRICES        = "0.025arevo"
	DEFAULT_HTTP_PORT         = 8080
)
