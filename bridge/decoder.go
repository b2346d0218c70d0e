package bridge

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"gorevobridge/config"
	"gorevobridge/types"
)

// transfer(address,uint256) binding used to decode NEXTEP deposits.
var (
	transferSelector  []byte
	transferArguments abi.Arguments
)

func init() {
	transferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

	addressTy, _ := abi.NewType("address", "", nil)
	uint256Ty, _ := abi.NewType("uint256", "", nil)
	transferArguments = abi.Arguments{
		{Name: "recipient", Type: addressTy},
		{Name: "amount", Type: uint256Ty},
	}
}

// DecodeError is scoped to a single transaction; the scan of the
// remaining transactions continues.
type DecodeError struct {
	TxHash string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode transaction %s: %s", e.TxHash, e.Reason)
}

// Decoder classifies raw transactions into qualifying deposits.
type Decoder struct {
	bridgeAddress  common.Address
	nextepContract common.Address
}

func NewDecoder(bridgeAddress, nextepContract common.Address) *Decoder {
	return &Decoder{
		bridgeAddress:  bridgeAddress,
		nextepContract: nextepContract,
	}
}

// Decode returns the deposit carried by tx, or (nil, nil) when tx is
// simply not a qualifying transfer. A *DecodeError is returned only
// for a transfer call with malformed calldata.
//
// Only the plain two-argument transfer call shape is recognized.
// Deposits routed through batching/dispatch contracts are invisible
// here; that is a known limitation of the bridge, not a decode bug.
func (d *Decoder) Decode(tx types.RawTransaction, blockNumber, blockTimestamp uint64) (*types.Deposit, error) {
	if tx.To == nil {
		// contract creation
		return nil, nil
	}

	// native CXS transfer straight to the bridge address
	if *tx.To == d.bridgeAddress {
		if tx.Value == nil || tx.Value.ToInt().Sign() <= 0 {
			return nil, nil
		}
		return &types.Deposit{
			TxHash:         tx.Hash.Hex(),
			FromAddress:    strings.ToLower(tx.From.Hex()),
			TokenAddress:   config.CXS_TOKEN_ADDRESS,
			Amount:         tx.Value.ToInt(),
			BlockNumber:    blockNumber,
			BlockTimestamp: blockTimestamp,
		}, nil
	}

	// NEXTEP transfer into the bridge address
	if *tx.To != d.nextepContract {
		return nil, nil
	}
	if len(tx.Input) < 4 || !bytes.Equal(tx.Input[:4], transferSelector) {
		return nil, nil
	}
	if len(tx.Input) > 4+2*32 {
		// not the canonical two-argument call shape
		return nil, nil
	}

	values, err := transferArguments.Unpack(tx.Input[4:])
	if err != nil {
		return nil, &DecodeError{TxHash: tx.Hash.Hex(), Reason: err.Error()}
	}
	recipient, ok := values[0].(common.Address)
	if !ok {
		return nil, &DecodeError{TxHash: tx.Hash.Hex(), Reason: "transfer recipient is not an address"}
	}
	amount, ok := values[1].(*big.Int)
	if !ok {
		return nil, &DecodeError{TxHash: tx.Hash.Hex(), Reason: "transfer amount is not an integer"}
	}

	if recipient != d.bridgeAddress || amount.Sign() <= 0 {
		return nil, nil
	}

	return &types.Deposit{
		TxHash:         tx.Hash.Hex(),
		FromAddress:    strings.ToLower(tx.From.Hex()),
		TokenAddress:   strings.ToLower(d.nextepContract.Hex()),
		Amount:         amount,
		BlockNumber:    blockNumber,
		BlockTimestamp: blockTimestamp,
	}, nil
}
