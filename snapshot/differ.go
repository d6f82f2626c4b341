package snapshot

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// PoolDiff is the set of changes that turns one list of pools into another.
type PoolDiff struct {
	Additions []PoolView       `yaml:"additions,omitempty"`
	Updates   []PoolView       `yaml:"updates,omitempty"`
	Deletions []common.Address `yaml:"deletions,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d PoolDiff) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Updates) == 0 && len(d.Deletions) == 0
}

func poolKey(p PoolView) common.Address {
	return common.HexToAddress(p.Address)
}

// poolChanged compares the mutable state of two versions of the same pool.
// Ticks are compared independent of their order.
func poolChanged(old, new PoolView) bool {
	if old.Tick != new.Tick {
		return true
	}
	if old.SqrtPriceX96.Cmp(new.SqrtPriceX96.Int) != 0 {
		return true
	}
	if old.Liquidity.Cmp(new.Liquidity.Int) != 0 {
		return true
	}

	if (old.Ticks == nil) != (new.Ticks == nil) || len(old.Ticks) != len(new.Ticks) {
		return true
	}

	byIndex := func(a, b TickInfo) int { return a.Index - b.Index }
	oldTicks := slices.SortedFunc(slices.Values(old.Ticks), byIndex)
	newTicks := slices.SortedFunc(slices.Values(new.Ticks), byIndex)

	for i := range oldTicks {
		if oldTicks[i].Index != newTicks[i].Index {
			return true
		}
		if oldTicks[i].LiquidityNet.Cmp(newTicks[i].LiquidityNet.Int) != 0 {
			return true
		}
		if oldTicks[i].LiquidityGross.Cmp(newTicks[i].LiquidityGross.Int) != 0 {
			return true
		}
	}
	return false
}

// Diff calculates the changes between two states of the same pools, keyed by pool
// address. Changes are listed in the order the pools appear in their state.
func Diff(old, new []PoolView) PoolDiff {
	oldPools := make(map[common.Address]PoolView, len(old))
	for _, pool := range old {
		oldPools[poolKey(pool)] = pool
	}
	newPools := make(map[common.Address]struct{}, len(new))

	var diff PoolDiff
	for _, pool := range new {
		key := poolKey(pool)
		newPools[key] = struct{}{}

		oldPool, exists := oldPools[key]
		switch {
		case !exists:
			diff.Additions = append(diff.Additions, pool)
		case poolChanged(oldPool, pool):
			diff.Updates = append(diff.Updates, pool)
		}
	}

	for _, pool := range old {
		if _, exists := newPools[poolKey(pool)]; !exists {
			diff.Deletions = append(diff.Deletions, poolKey(pool))
		}
	}
	return diff
}
