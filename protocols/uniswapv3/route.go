package uniswapv3

import (
	"fmt"
	"strings"
	"sync"
)

// Route is a path of pools leading from Input to Output.
type Route struct {
	Pools     []*Pool
	TokenPath []*Token
	Input     *Token
	Output    *Token

	midPriceOnce sync.Once
	midPrice     *Price
	midPriceErr  error
}

func NewRoute(pools []*Pool, input, output *Token) (*Route, error) {
	if len(pools) == 0 {
		return nil, ErrEmptyPools
	}

	chainID := pools[0].ChainID()
	for _, pool := range pools[1:] {
		if pool.ChainID() != chainID {
			return nil, fmt.Errorf("%w: %d and %d", ErrChainIDs, chainID, pool.ChainID())
		}
	}
	if !pools[0].InvolvesToken(input) {
		return nil, fmt.Errorf("%w: %s is not in the first pool", ErrInputCurrency, input)
	}
	if !pools[len(pools)-1].InvolvesToken(output) {
		return nil, fmt.Errorf("%w: %s is not in the last pool", ErrOutputCurrency, output)
	}

	path := make([]*Token, 0, len(pools)+1)
	path = append(path, input)
	current := input
	for i, pool := range pools {
		switch {
		case current.Equal(pool.Token0):
			current = pool.Token1
		case current.Equal(pool.Token1):
			current = pool.Token0
		default:
			return nil, fmt.Errorf("%w: %s is not in pool %d", ErrPath, current, i)
		}
		path = append(path, current)
	}
	if !current.Equal(output) {
		return nil, fmt.Errorf("%w: path ends in %s, not %s", ErrPath, current, output)
	}

	return &Route{
		Pools:     pools,
		TokenPath: path,
		Input:     input,
		Output:    output,
	}, nil
}

func (r *Route) ChainID() uint64 { return r.Pools[0].ChainID() }

// MidPrice chains the mid prices of every pool along the route.
func (r *Route) MidPrice() (*Price, error) {
	r.midPriceOnce.Do(func() {
		var price *Price
		for i, pool := range r.Pools {
			var hop *Price
			if r.TokenPath[i].Equal(pool.Token0) {
				hop = pool.Token0Price()
			} else {
				hop = pool.Token1Price()
			}
			if price == nil {
				price = hop
				continue
			}
			if price, r.midPriceErr = price.Multiply(hop); r.midPriceErr != nil {
				return
			}
		}
		r.midPrice = NewPrice(r.Input, r.Output, price.Denominator, price.Numerator)
	})
	return r.midPrice, r.midPriceErr
}

func (r *Route) String() string {
	symbols := make([]string, len(r.TokenPath))
	for i, t := range r.TokenPath {
		symbols[i] = t.String()
	}
	return strings.Join(symbols, " -> ")
}
