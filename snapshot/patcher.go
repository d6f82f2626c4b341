package snapshot

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

func copyBigInt(b BigInt) BigInt {
	if b.Int == nil {
		return BigInt{}
	}
	return NewBigInt(b.Int)
}

func copyTickInfo(t TickInfo) TickInfo {
	t.LiquidityGross = copyBigInt(t.LiquidityGross)
	t.LiquidityNet = copyBigInt(t.LiquidityNet)
	return t
}

// deepCopyPool returns a pool that shares no memory with p.
func deepCopyPool(p PoolView) PoolView {
	c := p
	c.Liquidity = copyBigInt(p.Liquidity)
	c.SqrtPriceX96 = copyBigInt(p.SqrtPriceX96)
	if p.Ticks != nil {
		c.Ticks = make([]TickInfo, len(p.Ticks))
		for i, tick := range p.Ticks {
			c.Ticks[i] = copyTickInfo(tick)
		}
	}
	return c
}

// Patch applies diff to prev and returns the new state without touching prev.
// Surviving pools keep their order; additions follow them.
func Patch(prev []PoolView, diff PoolDiff) []PoolView {
	deleted := make(map[common.Address]struct{}, len(diff.Deletions))
	for _, addr := range diff.Deletions {
		deleted[addr] = struct{}{}
	}
	updated := make(map[common.Address]PoolView, len(diff.Updates))
	for _, pool := range diff.Updates {
		updated[poolKey(pool)] = pool
	}

	next := make([]PoolView, 0, len(prev)+len(diff.Additions))
	seen := make(map[common.Address]int, len(prev)+len(diff.Additions))
	for _, pool := range prev {
		key := poolKey(pool)
		if _, ok := deleted[key]; ok {
			continue
		}
		if u, ok := updated[key]; ok {
			pool = u
		}
		seen[key] = len(next)
		next = append(next, deepCopyPool(pool))
	}

	// Updates of unknown pools and additions of known ones both act as upserts.
	for _, pool := range append(slices.Clone(diff.Updates), diff.Additions...) {
		key := poolKey(pool)
		if i, ok := seen[key]; ok {
			next[i] = deepCopyPool(pool)
			continue
		}
		seen[key] = len(next)
		next = append(next, deepCopyPool(pool))
	}
	return next
}
