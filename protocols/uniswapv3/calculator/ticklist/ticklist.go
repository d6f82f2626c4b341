// Package ticklist implements lookups over a sorted list of initialized ticks.
// The word-bounded search reproduces the on-chain TickBitmap semantics without a bitmap.
package ticklist

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3/calculator/tickmath"
)

var (
	ErrTickSpacing      = errors.New("tick spacing must be greater than zero")
	ErrNotSorted        = errors.New("ticks must be strictly ascending")
	ErrZeroNet          = errors.New("sum of liquidity net must be zero")
	ErrTickNotOnSpacing = errors.New("tick index is not a multiple of tick spacing")
	ErrInvalidTick      = errors.New("tick is missing liquidity values")
	ErrBelowSmallest    = errors.New("tick is below the smallest initialized tick")
	ErrAtOrAboveLargest = errors.New("tick is at or above the largest initialized tick")
	ErrTickNotFound     = errors.New("tick is not initialized")
)

// Tick is an initialized tick and the liquidity referencing it.
type Tick struct {
	Index          int      `json:"index" yaml:"index"`
	LiquidityGross *big.Int `json:"liquidityGross" yaml:"liquidityGross"`
	LiquidityNet   *big.Int `json:"liquidityNet" yaml:"liquidityNet"`
}

// Validate checks that ticks are strictly ascending, aligned to tickSpacing, within the
// global tick range and that their liquidity net sums to zero.
func Validate(ticks []Tick, tickSpacing int) error {
	if tickSpacing <= 0 {
		return fmt.Errorf("%w: %d", ErrTickSpacing, tickSpacing)
	}

	sum := new(big.Int)
	for i, tick := range ticks {
		if tick.LiquidityNet == nil || tick.LiquidityGross == nil {
			return fmt.Errorf("%w: index %d", ErrInvalidTick, tick.Index)
		}
		if tick.Index < tickmath.MIN_TICK || tick.Index > tickmath.MAX_TICK {
			return fmt.Errorf("%w: %d", tickmath.ErrTickOutOfBounds, tick.Index)
		}
		if tick.Index%tickSpacing != 0 {
			return fmt.Errorf("%w: index %d, spacing %d", ErrTickNotOnSpacing, tick.Index, tickSpacing)
		}
		if i > 0 && tick.Index <= ticks[i-1].Index {
			return fmt.Errorf("%w: %d follows %d", ErrNotSorted, tick.Index, ticks[i-1].Index)
		}
		sum.Add(sum, tick.LiquidityNet)
	}

	if sum.Sign() != 0 {
		return fmt.Errorf("%w: got %s", ErrZeroNet, sum)
	}
	return nil
}

// IsBelowSmallest reports whether tick is below the first initialized tick.
// An empty list has no initialized ticks, so every tick is below it.
func IsBelowSmallest(ticks []Tick, tick int) bool {
	return len(ticks) == 0 || tick < ticks[0].Index
}

// IsAtOrAboveLargest reports whether tick is at or above the last initialized tick.
func IsAtOrAboveLargest(ticks []Tick, tick int) bool {
	return len(ticks) == 0 || tick >= ticks[len(ticks)-1].Index
}

// BinarySearch returns the position of the largest initialized tick less than or equal to tick.
func BinarySearch(ticks []Tick, tick int) (int, error) {
	if IsBelowSmallest(ticks, tick) {
		return 0, fmt.Errorf("%w: %d", ErrBelowSmallest, tick)
	}

	// first position whose index is strictly greater than tick
	i := sort.Search(len(ticks), func(i int) bool {
		return ticks[i].Index > tick
	})
	return i - 1, nil
}

// GetTick returns the initialized tick at index.
func GetTick(ticks []Tick, index int) (Tick, error) {
	i, err := BinarySearch(ticks, index)
	if err != nil {
		return Tick{}, fmt.Errorf("%w: %d", ErrTickNotFound, index)
	}
	if ticks[i].Index != index {
		return Tick{}, fmt.Errorf("%w: %d", ErrTickNotFound, index)
	}
	return ticks[i], nil
}

// NextInitializedTick returns the nearest initialized tick at or below tick when lte is set,
// and the nearest one strictly above tick otherwise.
func NextInitializedTick(ticks []Tick, tick int, lte bool) (Tick, error) {
	if lte {
		if len(ticks) > 0 && IsAtOrAboveLargest(ticks, tick) {
			return ticks[len(ticks)-1], nil
		}
		i, err := BinarySearch(ticks, tick)
		if err != nil {
			return Tick{}, err
		}
		return ticks[i], nil
	}

	if IsAtOrAboveLargest(ticks, tick) {
		return Tick{}, fmt.Errorf("%w: %d", ErrAtOrAboveLargest, tick)
	}
	if IsBelowSmallest(ticks, tick) {
		return ticks[0], nil
	}
	i, err := BinarySearch(ticks, tick)
	if err != nil {
		return Tick{}, err
	}
	return ticks[i+1], nil
}

// NextInitializedTickWithinOneWord returns the next initialized tick in the search direction,
// never looking beyond the 256-spacing word containing tick. When no initialized tick lies in
// that word, the word boundary is returned with initialized set to false.
func NextInitializedTickWithinOneWord(ticks []Tick, tick int, lte bool, tickSpacing int) (next int, initialized bool, err error) {
	if tickSpacing <= 0 {
		return 0, false, fmt.Errorf("%w: %d", ErrTickSpacing, tickSpacing)
	}

	compressed := floorDiv(tick, tickSpacing)

	if lte {
		wordPos := compressed >> 8
		minimum := (wordPos << 8) * tickSpacing

		if IsBelowSmallest(ticks, tick) {
			return minimum, false, nil
		}

		t, err := NextInitializedTick(ticks, tick, lte)
		if err != nil {
			return 0, false, err
		}
		next = max(minimum, t.Index)
		return next, next == t.Index, nil
	}

	wordPos := (compressed + 1) >> 8
	maximum := (((wordPos + 1) << 8) - 1) * tickSpacing

	if IsAtOrAboveLargest(ticks, tick) {
		return maximum, false, nil
	}

	t, err := NextInitializedTick(ticks, tick, lte)
	if err != nil {
		return 0, false, err
	}
	next = min(maximum, t.Index)
	return next, next == t.Index, nil
}

// floorDiv rounds towards negative infinity, unlike Go's truncating division.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
