package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gomodule/redigo/redis"

	"gorevobridge/types"
)

const redisStateKey = "revobridge:state"

// RedisStore is the alternative state backend: the same document the
// file store writes, held under a single key. Single-writer ownership
// still applies; Redis only moves durability off the local disk.
type RedisStore struct {
	pool *redis.Pool
}

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func NewRedisStore(host string, port int) *RedisStore {
	redisAddr := fmt.Sprintf("%s:%d", host, port)
	return &RedisStore{
		pool: &redis.Pool{
			MaxIdle: 5,
			Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
		},
	}
}

func (s *RedisStore) Load() (*types.BridgeState, error) {
	conn := s.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", redisStateKey))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			// cold start
			return types.NewBridgeState(), nil
		}
		log.Printf("error Redis get: %s", err.Error())
		return nil, err
	}

	state := types.NewBridgeState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing bridge state from Redis: %w", err)
	}
	return state, nil
}

func (s *RedisStore) Save(state *types.BridgeState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	conn := s.pool.Get()
	defer conn.Close()

	_, err = conn.Do("SET", redisStateKey, data)
	if err != nil {
		log.Printf("error Redis set: %s", err.Error())
		return err
	}
	return nil
}
