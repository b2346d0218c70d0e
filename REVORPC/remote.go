package REVORPC

import (
	"context"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/ybbus/jsonrpc"
)

// RemoteClient submits mints through a JSON-RPC signing service, so
// the bridge host never holds the minting key. The request id lets the
// signer correlate retried submissions in its own logs.
type RemoteClient struct {
	rpc jsonrpc.RPCClient
}

func NewRemoteClient(endpoint string) *RemoteClient {
	return &RemoteClient{rpc: jsonrpc.NewClient(endpoint)}
}

type mintRequest struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type mintResult struct {
	TxHash string `json:"tx_hash"`
}

func (c *RemoteClient) Mint(ctx context.Context, recipient string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() <= 0 {
		return "", ErrAmountNonPositive
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	response, err := c.rpc.Call("bridge_mint", &mintRequest{
		ID:        uuid.New().String(),
		Recipient: recipient,
		Amount:    amount.String(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("%w: signer error %d: %s", ErrSubmission, response.Error.Code, response.Error.Message)
	}

	var result mintResult
	if err := response.GetObject(&result); err != nil {
		return "", fmt.Errorf("%w: malformed signer response: %v", ErrSubmission, err)
	}
	if result.TxHash == "" {
		return "", fmt.Errorf("%w: signer returned no transaction hash", ErrSubmission)
	}
	return result.TxHash, nil
}
