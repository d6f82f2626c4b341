// Package snapshot loads pool and tick state from YAML or JSON files, diffs and
// patches that state, and indexes it as a Market of quotable pools.
package snapshot

import (
	"fmt"
	"math/big"

	"gopkg.in/yaml.v3"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// BigInt is an integer that decodes from a YAML or JSON number or string, in any base
// accepted by big.Int.SetString with base 0. It encodes as a decimal string.
type BigInt struct {
	*big.Int
}

func NewBigInt(x *big.Int) BigInt {
	return BigInt{Int: new(big.Int).Set(x)}
}

func (b *BigInt) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected an integer", value.Line)
	}
	n, ok := new(big.Int).SetString(value.Value, 0)
	if !ok {
		return fmt.Errorf("line %d: invalid integer %q", value.Line, value.Value)
	}
	b.Int = n
	return nil
}

func (b BigInt) MarshalYAML() (any, error) {
	if b.Int == nil {
		return nil, nil
	}
	return b.Int.String(), nil
}

// Big returns a copy of the value, or nil when unset.
func (b BigInt) Big() *big.Int {
	if b.Int == nil {
		return nil
	}
	return new(big.Int).Set(b.Int)
}

// TokenView describes an ERC20 token.
type TokenView struct {
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
	Symbol   string `yaml:"symbol,omitempty"`
	Name     string `yaml:"name,omitempty"`
}

// PoolViewMinimal is the core state of a single pool. Token0 and Token1 are token
// addresses; Address and TickSpacing are derived from the pair and fee when omitted.
type PoolViewMinimal struct {
	Address      string `yaml:"address,omitempty"`
	Token0       string `yaml:"token0"`
	Token1       string `yaml:"token1"`
	Fee          uint32 `yaml:"fee"`
	TickSpacing  int    `yaml:"tickSpacing,omitempty"`
	Tick         int    `yaml:"tick"`
	Liquidity    BigInt `yaml:"liquidity"`
	SqrtPriceX96 BigInt `yaml:"sqrtPriceX96"`
}

// TickInfo is an initialized tick of a pool.
type TickInfo struct {
	Index          int    `yaml:"index"`
	LiquidityGross BigInt `yaml:"liquidityGross"`
	LiquidityNet   BigInt `yaml:"liquidityNet"`
}

// PoolView combines the core pool state with its initialized ticks. A nil Ticks means
// the tick data is unknown, not that the pool has none.
type PoolView struct {
	PoolViewMinimal `yaml:",inline"`
	Ticks           []TickInfo `yaml:"ticks,omitempty"`
}

// Snapshot is the decoded content of a snapshot file.
type Snapshot struct {
	ChainID      uint64      `yaml:"chainId"`
	Factory      string      `yaml:"factory,omitempty"`
	InitCodeHash string      `yaml:"initCodeHash,omitempty"`
	Tokens       []TokenView `yaml:"tokens"`
	Pools        []PoolView  `yaml:"pools"`
}
