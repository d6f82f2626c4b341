package snapshot

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/defistate/uniswapv3-sdk-go/chains"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/ticklist"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrTokenNotFound   = errors.New("token not found")
	ErrAmbiguousSymbol = errors.New("symbol matches more than one token")
)

// Market is an immutable index of the tokens and quotable pools of a snapshot.
type Market struct {
	snapshot *Snapshot
	logger   Logger

	tokens   map[common.Address]*uniswapv3.Token
	bySymbol map[string][]*uniswapv3.Token
	pools    map[common.Address]*uniswapv3.Pool
	all      []*uniswapv3.Pool
	// routable holds the pools with tick data.
	routable []*uniswapv3.Pool
}

// NewMarket builds a pool for every pool view in s, serving its ticks from memory.
// Pools without tick data can only quote within the spacing range around their
// current tick, and are left out of Pools.
func NewMarket(s *Snapshot, logger Logger) (*Market, error) {
	if s == nil {
		return nil, errors.New("snapshot cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	m := &Market{
		snapshot: s,
		logger:   logger,
		tokens:   make(map[common.Address]*uniswapv3.Token, len(s.Tokens)),
		bySymbol: make(map[string][]*uniswapv3.Token, len(s.Tokens)),
		pools:    make(map[common.Address]*uniswapv3.Pool, len(s.Pools)),
		all:      make([]*uniswapv3.Pool, 0, len(s.Pools)),
	}

	for _, tv := range s.Tokens {
		addr, err := parseAddress(tv.Address)
		if err != nil {
			return nil, err
		}
		token := uniswapv3.NewToken(s.ChainID, addr, tv.Decimals, tv.Symbol, tv.Name)
		m.tokens[addr] = token
		if tv.Symbol != "" {
			key := strings.ToUpper(tv.Symbol)
			m.bySymbol[key] = append(m.bySymbol[key], token)
		}
	}

	for _, pv := range s.Pools {
		pool, err := m.buildPool(pv)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", pv.Address, err)
		}
		m.pools[pool.Address()] = pool
		m.all = append(m.all, pool)
		if pv.Ticks != nil {
			m.routable = append(m.routable, pool)
		}
	}

	logger.Info("market indexed", "chain", chains.Name(s.ChainID), "tokens", len(m.tokens),
		"pools", len(m.all), "routable", len(m.routable))
	return m, nil
}

func (m *Market) buildPool(pv PoolView) (*uniswapv3.Pool, error) {
	token0, err := lookupToken(m.tokens, pv.Token0)
	if err != nil {
		return nil, err
	}
	token1, err := lookupToken(m.tokens, pv.Token1)
	if err != nil {
		return nil, err
	}
	addr, err := parseAddress(pv.Address)
	if err != nil {
		return nil, err
	}

	var provider ticklist.TickDataProvider
	if pv.Ticks == nil {
		m.logger.Warn("pool has no tick data, leaving it out of route search", "pool", addr)
	} else {
		ticks := make([]ticklist.Tick, len(pv.Ticks))
		for i, t := range pv.Ticks {
			ticks[i] = ticklist.Tick{
				Index:          t.Index,
				LiquidityGross: t.LiquidityGross.Big(),
				LiquidityNet:   t.LiquidityNet.Big(),
			}
		}
		slices.SortFunc(ticks, func(a, b ticklist.Tick) int { return a.Index - b.Index })
		if provider, err = ticklist.NewListProvider(ticks, pv.TickSpacing); err != nil {
			return nil, err
		}
	}

	return uniswapv3.NewPool(
		token0, token1, pv.Fee,
		pv.SqrtPriceX96.Int, pv.Liquidity.Int, pv.Tick,
		provider,
		uniswapv3.WithTickSpacing(pv.TickSpacing),
		uniswapv3.WithAddress(addr),
	)
}

func (m *Market) ChainID() uint64 { return m.snapshot.ChainID }

// Token resolves ref as a token address or, failing that, a case-insensitive symbol.
func (m *Market) Token(ref string) (*uniswapv3.Token, error) {
	if common.IsHexAddress(ref) {
		if t, ok := m.tokens[common.HexToAddress(ref)]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, ref)
	}

	matches := m.bySymbol[strings.ToUpper(ref)]
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousSymbol, ref)
	}
}

// Tokens returns all tokens ordered by address.
func (m *Market) Tokens() []*uniswapv3.Token {
	tokens := make([]*uniswapv3.Token, 0, len(m.tokens))
	for _, t := range m.tokens {
		tokens = append(tokens, t)
	}
	slices.SortFunc(tokens, func(a, b *uniswapv3.Token) int { return a.Address.Cmp(b.Address) })
	return tokens
}

// Pool retrieves a pool by its address.
func (m *Market) Pool(addr common.Address) (*uniswapv3.Pool, bool) {
	p, ok := m.pools[addr]
	return p, ok
}

// Pools returns the pools that carry tick data, in snapshot order. These are the
// pools a route search can use without stopping at a range it cannot cross.
func (m *Market) Pools() []*uniswapv3.Pool {
	return slices.Clone(m.routable)
}

// AllPools returns every pool in snapshot order, including those without tick data.
func (m *Market) AllPools() []*uniswapv3.Pool {
	return slices.Clone(m.all)
}

// PoolViews returns a deep copy of the pool state the market was built from.
func (m *Market) PoolViews() []PoolView {
	views := make([]PoolView, len(m.snapshot.Pools))
	for i, pv := range m.snapshot.Pools {
		views[i] = deepCopyPool(pv)
	}
	return views
}

// Apply returns a new market with diff applied to this market's pools. The receiver
// is left unchanged.
func (m *Market) Apply(diff PoolDiff) (*Market, error) {
	next := *m.snapshot
	next.Tokens = slices.Clone(m.snapshot.Tokens)
	next.Pools = Patch(m.snapshot.Pools, diff)
	if err := next.normalize(); err != nil {
		return nil, err
	}

	m.logger.Debug("applying pool diff",
		"additions", len(diff.Additions),
		"updates", len(diff.Updates),
		"deletions", len(diff.Deletions),
	)
	return NewMarket(&next, m.logger)
}
