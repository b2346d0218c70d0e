package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorevobridge/types"
)

func hashFromString(s string) common.Hash {
	return common.HexToHash(s)
}

type fakeChain struct {
	head       uint64
	headErr    error
	blocks     map[uint64][]types.RawTransaction
	failBlocks map[uint64]bool
	getCalls   int
}

func (f *fakeChain) HeadBlock(ctx context.Context) (uint64, error) {
	return f.head, f.headErr
}

func (f *fakeChain) GetBlock(ctx context.Context, number uint64) (*types.RawBlock, error) {
	f.getCalls++
	if f.failBlocks[number] {
		return nil, errors.New("rpc timeout")
	}
	return &types.RawBlock{
		Number:       (*hexutil.Big)(new(big.Int).SetUint64(number)),
		Timestamp:    hexutil.Uint64(1700000000 + number),
		Transactions: f.blocks[number],
	}, nil
}

type fakeMinter struct {
	calls int
	fail  bool
}

func (f *fakeMinter) Mint(ctx context.Context, recipient string, amount *big.Int) (string, error) {
	f.calls++
	if f.fail {
		return "", errors.New("insufficient gas")
	}
	return fmt.Sprintf("MINT%d", f.calls), nil
}

func testOrchestrator(t *testing.T, chain *fakeChain, minter *fakeMinter) *Orchestrator {
	t.Helper()

	ledger, err := OpenLedger(NewFileStore(filepath.Join(t.TempDir(), "bridge_state.json")))
	require.NoError(t, err)

	return NewOrchestrator(Params{
		BridgeAddress:  testBridgeAddr,
		NextepContract: testNextepAddr,
		Confirmations:  12,
		MaxBlockBatch:  100,
		PollInterval:   time.Millisecond,
		RevoPrice:      dec(t, "0.10"),
		CXSPrice:       dec(t, "0.05"),
		NextepPrice:    dec(t, "0.02"),
		CXSPinned:      true,
		NextepPinned:   true,
	}, chain, ledger, minter, nil)
}

func nativeDepositTx(hash string, amount *big.Int) types.RawTransaction {
	return types.RawTransaction{
		Hash:  hashFromString(hash),
		From:  testSender,
		To:    &testBridgeAddr,
		Value: (*hexutil.Big)(amount),
	}
}

func TestComputeWindowNoOpInsideConfirmationMargin(t *testing.T) {
	chain := &fakeChain{head: 100}
	orch := testOrchestrator(t, chain, &fakeMinter{})
	orch.ledger.AdvanceTo(90)

	// head 100 minus 12 confirmations leaves nothing past block 90
	_, _, ok := orch.computeWindow(100)
	assert.False(t, ok)

	require.NoError(t, orch.runCycle(context.Background()))
	assert.Equal(t, 0, chain.getCalls)
	assert.Equal(t, uint64(90), orch.ledger.LastBlockProcessed())
}

func TestComputeWindowBatchCap(t *testing.T) {
	orch := testOrchestrator(t, &fakeChain{}, &fakeMinter{})
	orch.params.MaxBlockBatch = 10
	orch.ledger.AdvanceTo(100)

	start, end, ok := orch.computeWindow(500)
	require.True(t, ok)
	assert.Equal(t, uint64(101), start)
	assert.Equal(t, uint64(110), end)
}

func TestCycleMintsAndRecordsDeposit(t *testing.T) {
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)
	chain := &fakeChain{
		head: 27, // window [1, 15]
		blocks: map[uint64][]types.RawTransaction{
			12: {nativeDepositTx("0x01", amount)},
		},
	}
	minter := &fakeMinter{}
	orch := testOrchestrator(t, chain, minter)

	require.NoError(t, orch.runCycle(context.Background()))

	assert.Equal(t, 1, minter.calls)
	assert.True(t, orch.ledger.IsProcessed(hashFromString("0x01").Hex()))
	assert.Equal(t, uint64(15), orch.ledger.LastBlockProcessed())

	// second cycle over the same window must not mint again
	orch.ledger.state.LastBlockProcessed = 0
	require.NoError(t, orch.runCycle(context.Background()))
	assert.Equal(t, 1, minter.calls)
}

func TestCycleMintFailureLeavesDepositUnrecorded(t *testing.T) {
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)
	chain := &fakeChain{
		head: 27,
		blocks: map[uint64][]types.RawTransaction{
			12: {nativeDepositTx("0x01", amount)},
		},
	}
	minter := &fakeMinter{fail: true}
	orch := testOrchestrator(t, chain, minter)

	require.NoError(t, orch.runCycle(context.Background()))

	assert.Equal(t, 1, minter.calls)
	assert.False(t, orch.ledger.IsProcessed(hashFromString("0x01").Hex()))
	// the window still advances past the failed mint
	assert.Equal(t, uint64(15), orch.ledger.LastBlockProcessed())
}

func TestCycleDoesNotAdvancePastFailedBlock(t *testing.T) {
	amount, _ := new(big.Int).SetString("1000000000000000000", 10)
	chain := &fakeChain{
		head: 27,
		blocks: map[uint64][]types.RawTransaction{
			14: {nativeDepositTx("0x02", amount)},
		},
		failBlocks: map[uint64]bool{13: true},
	}
	minter := &fakeMinter{}
	orch := testOrchestrator(t, chain, minter)

	require.NoError(t, orch.runCycle(context.Background()))

	// deposit beyond the gap is still credited this cycle...
	assert.Equal(t, 1, minter.calls)
	assert.True(t, orch.ledger.IsProcessed(hashFromString("0x02").Hex()))
	// ...but the watermark stops before the unfetched block, so it is
	// rescanned next cycle
	assert.Equal(t, uint64(12), orch.ledger.LastBlockProcessed())
}

func TestCycleHeadFetchErrorIsReturned(t *testing.T) {
	chain := &fakeChain{headErr: errors.New("connection refused")}
	orch := testOrchestrator(t, chain, &fakeMinter{})

	err := orch.runCycle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, chain.getCalls)
}

func TestRunStopsOnCancel(t *testing.T) {
	chain := &fakeChain{head: 5}
	orch := testOrchestrator(t, chain, &fakeMinter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not stop after cancellation")
	}
}

func TestRevoAmountUnsupportedAsset(t *testing.T) {
	orch := testOrchestrator(t, &fakeChain{}, &fakeMinter{})

	_, err := orch.revoAmount(&types.Deposit{
		TokenAddress: "0x9999999999999999999999999999999999999999",
		Amount:       big.NewInt(1),
	})
	assert.ErrorIs(t, err, ErrUnsupportedAsset)
}
