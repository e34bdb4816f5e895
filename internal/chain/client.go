package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/blues/ivs/internal/config"
	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/logger"
)

var supportedTypes = []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism"}

// HeaderReader 读取区块头的最小接口，由 ethclient.Client 实现
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client 以最新区块时间戳作为平局抽签的熵来源
type Client struct {
	mu      sync.RWMutex
	reader  HeaderReader
	closer  func()
	config  config.ChainConfig
	timeout time.Duration
}

var _ engine.EntropySource = (*Client)(nil)

// Dial 连接 RPC 节点并校验链类型和链ID
func Dial(cfg config.ChainConfig) (*Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}
	if !isSupported(cfg.ChainType) {
		return nil, fmt.Errorf("unsupported chain type %s, supported types: %v", cfg.ChainType, supportedTypes)
	}

	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, cfg.RpcUrl)
	ec, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}
	c := NewClient(ec, cfg)
	c.closer = ec.Close

	if err := c.testConnection(); err != nil {
		ec.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}
	logger.Info("Successfully created %s client", cfg.ChainType)
	return c, nil
}

// NewClient 使用已有的区块头读取器
func NewClient(reader HeaderReader, cfg config.ChainConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{reader: reader, config: cfg, timeout: timeout}
}

func isSupported(chainType string) bool {
	for _, t := range supportedTypes {
		if t == chainType {
			return true
		}
	}
	return false
}

// testConnection 测试连接，配置了链ID时校验是否一致
func (c *Client) testConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if _, err := c.reader.BlockNumber(ctx); err != nil {
		return fmt.Errorf("failed to get block number: %w", err)
	}
	if c.config.ChainId == 0 {
		return nil
	}
	id, err := c.reader.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if id.Int64() != c.config.ChainId {
		return fmt.Errorf("chain id mismatch: configured %d, node reports %s", c.config.ChainId, id)
	}
	return nil
}

// LatestHeader 获取最新区块头
func (c *Client) LatestHeader(ctx context.Context) (*types.Header, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reader.HeaderByNumber(ctx, nil)
}

// Timestamp 最新区块时间戳
func (c *Client) Timestamp() (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	header, err := c.LatestHeader(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest header: %w", err)
	}
	return header.Time, nil
}

// GetHealthStatus 获取健康状态
func (c *Client) GetHealthStatus(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"chain_type":    c.config.ChainType,
		"chain_id":      c.config.ChainId,
		"client_status": "connected",
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n, err := c.reader.BlockNumber(ctx); err != nil {
		health["client_status"] = "disconnected"
	} else {
		health["block_number"] = n
	}
	return health
}

// Close 关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer != nil {
		c.closer()
		c.closer = nil
	}
	logger.Info("Chain client closed")
}
