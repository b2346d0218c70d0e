package NXRPC

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"gorevobridge/types"
)

// WithClient runs f against the first nxchain RPC endpoint that both
// dials and answers, falling through the list on any error.
func WithClient[T any](urls []string, f func(client *rpc.Client) (T, error)) (res T, err error) {
	var client *rpc.Client
	for _, url := range urls {
		client, err = rpc.Dial(url)
		if err != nil {
			log.Println(fmt.Sprintf("Error connecting to %s: %s", url, err.Error()))
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
	}
	if err == nil {
		err = errors.New("no nxchain RPC endpoints configured")
	}
	return
}

// Client reads the source chain. Every outbound call goes through the
// rate gate so provider quotas are respected.
type Client struct {
	urls    []string
	limiter *RateLimiter
}

func NewClient(urls []string, requestsPerMinute int) *Client {
	return &Client{
		urls:    urls,
		limiter: NewRateLimiter(requestsPerMinute),
	}
}

func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	c.limiter.Wait(ctx)
	return WithClient(c.urls, func(client *rpc.Client) (uint64, error) {
		var head hexutil.Uint64
		err := client.CallContext(ctx, &head, "eth_blockNumber")
		return uint64(head), err
	})
}

// GetBlock fetches one block with full transaction bodies.
func (c *Client) GetBlock(ctx context.Context, number uint64) (*types.RawBlock, error) {
	c.limiter.Wait(ctx)
	return WithClient(c.urls, func(client *rpc.Client) (*types.RawBlock, error) {
		var block types.RawBlock
		err := client.CallContext(ctx, &block, "eth_getBlockByNumber", hexutil.EncodeUint64(number), true)
		if err != nil {
			return nil, err
		}
		if block.Number == nil {
			return nil, ethereum.NotFound
		}
		return &block, nil
	})
}
