package uniswapv3

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Token is an ERC20 token on a specific chain.
type Token struct {
	ChainID  uint64         `json:"chainId" yaml:"chainId"`
	Address  common.Address `json:"address" yaml:"address"`
	Decimals uint8          `json:"decimals" yaml:"decimals"`
	Symbol   string         `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
}

func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) *Token {
	return &Token{
		ChainID:  chainID,
		Address:  address,
		Decimals: decimals,
		Symbol:   symbol,
		Name:     name,
	}
}

// Equal reports whether both tokens share a chain and an address.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// SortsBefore reports whether t is token0 of a pool made with other.
func (t *Token) SortsBefore(other *Token) (bool, error) {
	if t.ChainID != other.ChainID {
		return false, fmt.Errorf("%w: %d != %d", ErrChainIDs, t.ChainID, other.ChainID)
	}
	if t.Address == other.Address {
		return false, fmt.Errorf("%w: %s", ErrSameAddress, t.Address)
	}
	return t.Address.Cmp(other.Address) < 0, nil
}

func (t *Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}

// sortTokens returns the pair ordered as (token0, token1).
func sortTokens(a, b *Token) (*Token, *Token, error) {
	before, err := a.SortsBefore(b)
	if err != nil {
		return nil, nil, err
	}
	if before {
		return a, b, nil
	}
	return b, a, nil
}
