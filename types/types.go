package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Raw transaction shape returned by eth_getBlockByNumber with full
// transaction objects. Only the fields the bridge inspects are decoded.
type RawTransaction struct {
	Hash  common.Hash     `json:"hash"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Input hexutil.Bytes   `json:"input"`
}

type RawBlock struct {
	Number       *hexutil.Big     `json:"number"`
	Hash         common.Hash      `json:"hash"`
	Timestamp    hexutil.Uint64   `json:"timestamp"`
	Transactions []RawTransaction `json:"transactions"`
}

// Deposit is a qualifying transfer of CXS or NEXTEP to the bridge
// address, produced per scan cycle and never persisted as-is.
type Deposit struct {
	TxHash         string
	FromAddress    string
	TokenAddress   string // zero address for native CXS
	Amount         *big.Int
	BlockNumber    uint64
	BlockTimestamp uint64
}

// LedgerEntry is the write-once proof that a deposit was credited.
// Amounts are decimal strings of base units.
type LedgerEntry struct {
	FromAddress  string `json:"from_address"`
	TokenAddress string `json:"token_address"`
	Amount       string `json:"amount"`
	RevoAmount   string `json:"revo_amount"`
	MintTxHash   string `json:"mint_tx_hash"`
	Timestamp    string `json:"timestamp"`
}

type ProcessedTx struct {
	Timestamp string      `json:"timestamp"`
	Details   LedgerEntry `json:"details"`
}

// BridgeState is the whole persisted state document. One instance per
// running bridge; loaded at startup, saved after every poll cycle.
type BridgeState struct {
	LastBlockProcessed uint64                 `json:"last_block_processed"`
	ProcessedTxs       map[string]ProcessedTx `json:"processed_txs"`
}

func NewBridgeState() *BridgeState {
	return &BridgeState{ProcessedTxs: map[string]ProcessedTx{}}
}
