package bridge

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorevobridge/config"
	"gorevobridge/types"
)

var (
	testBridgeAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testNextepAddr = common.HexToAddress("0x432e4997060f2385bdb32cdc8be815c6b22a8a61")
	testSender     = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func transferInput(recipient common.Address, amount *big.Int) hexutil.Bytes {
	input := make([]byte, 0, 4+2*32)
	input = append(input, transferSelector...)
	input = append(input, common.LeftPadBytes(recipient.Bytes(), 32)...)
	input = append(input, common.LeftPadBytes(amount.Bytes(), 32)...)
	return input
}

func rawTx(to *common.Address, value *big.Int, input hexutil.Bytes) types.RawTransaction {
	tx := types.RawTransaction{
		Hash:  common.HexToHash("0xabcdef"),
		From:  testSender,
		To:    to,
		Input: input,
	}
	if value != nil {
		tx.Value = (*hexutil.Big)(value)
	}
	return tx
}

func TestDecodeNativeDeposit(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	amount := big.NewInt(1_000_000)
	deposit, err := d.Decode(rawTx(&testBridgeAddr, amount, nil), 42, 1700000000)
	require.NoError(t, err)
	require.NotNil(t, deposit)

	assert.Equal(t, config.CXS_TOKEN_ADDRESS, deposit.TokenAddress)
	assert.Equal(t, amount.String(), deposit.Amount.String())
	assert.Equal(t, "0x2222222222222222222222222222222222222222", deposit.FromAddress)
	assert.Equal(t, uint64(42), deposit.BlockNumber)
	assert.Equal(t, uint64(1700000000), deposit.BlockTimestamp)
}

func TestDecodeNativeZeroValue(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	deposit, err := d.Decode(rawTx(&testBridgeAddr, big.NewInt(0), nil), 42, 0)
	require.NoError(t, err)
	assert.Nil(t, deposit)
}

func TestDecodeTokenDeposit(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	amount := big.NewInt(987_654_321)
	deposit, err := d.Decode(rawTx(&testNextepAddr, nil, transferInput(testBridgeAddr, amount)), 7, 1700000001)
	require.NoError(t, err)
	require.NotNil(t, deposit)

	assert.Equal(t, "0x432e4997060f2385bdb32cdc8be815c6b22a8a61", deposit.TokenAddress)
	assert.Equal(t, amount.String(), deposit.Amount.String())
	assert.Equal(t, uint64(7), deposit.BlockNumber)
}

func TestDecodeTokenRecipientNotBridge(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	other := common.HexToAddress("0x3333333333333333333333333333333333333333")
	deposit, err := d.Decode(rawTx(&testNextepAddr, nil, transferInput(other, big.NewInt(100))), 7, 0)
	require.NoError(t, err)
	assert.Nil(t, deposit)
}

func TestDecodeTokenWrongSelector(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	input := transferInput(testBridgeAddr, big.NewInt(100))
	input[0] ^= 0xff
	deposit, err := d.Decode(rawTx(&testNextepAddr, nil, input), 7, 0)
	require.NoError(t, err)
	assert.Nil(t, deposit)
}

func TestDecodeTokenTruncatedInput(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	input := transferInput(testBridgeAddr, big.NewInt(100))[:30]
	deposit, err := d.Decode(rawTx(&testNextepAddr, nil, input), 7, 0)
	assert.Nil(t, deposit)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, common.HexToHash("0xabcdef").Hex(), decodeErr.TxHash)
}

func TestDecodeTokenOversizedInput(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	// batched/dispatch call shapes are deliberately not recognized
	input := append(transferInput(testBridgeAddr, big.NewInt(100)), make([]byte, 32)...)
	deposit, err := d.Decode(rawTx(&testNextepAddr, nil, input), 7, 0)
	require.NoError(t, err)
	assert.Nil(t, deposit)
}

func TestDecodeUnrelatedTransaction(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	other := common.HexToAddress("0x4444444444444444444444444444444444444444")
	deposit, err := d.Decode(rawTx(&other, big.NewInt(500), nil), 7, 0)
	require.NoError(t, err)
	assert.Nil(t, deposit)

	// contract creation
	deposit, err = d.Decode(rawTx(nil, big.NewInt(500), nil), 7, 0)
	require.NoError(t, err)
	assert.Nil(t, deposit)
}

func TestDecodeTokenZeroAmount(t *testing.T) {
	d := NewDecoder(testBridgeAddr, testNextepAddr)

	deposit, err := d.Decode(rawTx(&testNextepAddr, nil, transferInput(testBridgeAddr, big.NewInt(0))), 7, 0)
	require.NoError(t, err)
	assert.Nil(t, deposit)
}
