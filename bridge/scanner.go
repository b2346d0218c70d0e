package bridge

import (
	"context"
	"log"

	"gorevobridge/types"
)

// ChainReader is the slice of the source-chain RPC surface the bridge
// needs. NXRPC.Client satisfies it.
type ChainReader interface {
	HeadBlock(ctx context.Context) (uint64, error)
	GetBlock(ctx context.Context, number uint64) (*types.RawBlock, error)
}

// ScannedTx is one raw transaction together with where it was found.
type ScannedTx struct {
	Tx             types.RawTransaction
	BlockNumber    uint64
	BlockTimestamp uint64
}

type Scanner struct {
	chain ChainReader
}

func NewScanner(chain ChainReader) *Scanner {
	return &Scanner{chain: chain}
}

// ScanRange fetches every block in [startBlock, endBlock] with full
// transaction bodies. A block that fails to fetch is logged and
// skipped rather than retried; lastContiguous reports the last block
// before the first such gap, so the caller can refuse to advance its
// watermark past an unscanned block. Returns a non-nil error only on
// cancellation.
func (s *Scanner) ScanRange(ctx context.Context, startBlock, endBlock uint64) (txs []ScannedTx, lastContiguous uint64, err error) {
	log.Printf("Scanning for deposits from block %d to %d", startBlock, endBlock)

	lastContiguous = startBlock - 1
	gap := false

	for blockNumber := startBlock; blockNumber <= endBlock; blockNumber++ {
		if err := ctx.Err(); err != nil {
			return txs, lastContiguous, err
		}

		block, err := s.chain.GetBlock(ctx, blockNumber)
		if err != nil {
			log.Printf("Error fetching block %d: %s", blockNumber, err.Error())
			gap = true
			continue
		}

		for _, tx := range block.Transactions {
			txs = append(txs, ScannedTx{
				Tx:             tx,
				BlockNumber:    blockNumber,
				BlockTimestamp: uint64(block.Timestamp),
			})
		}

		if !gap {
			lastContiguous = blockNumber
		}
	}

	return txs, lastContiguous, nil
}
