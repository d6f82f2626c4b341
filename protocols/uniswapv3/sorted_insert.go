package uniswapv3

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrMaxSizeZero  = errors.New("max size must be positive")
	ErrListTooLarge = errors.New("list is larger than max size")
)

// SortedInsert inserts add into items, which is sorted by cmp and holds at most maxSize
// elements. When the list is full the worst element is dropped and returned.
// Items equal to add keep their place ahead of it.
func SortedInsert[T any](items []T, add T, maxSize int, cmp func(a, b T) int) ([]T, T, bool, error) {
	var zero T
	if maxSize <= 0 {
		return items, zero, false, ErrMaxSizeZero
	}
	if len(items) > maxSize {
		return items, zero, false, fmt.Errorf("%w: %d > %d", ErrListTooLarge, len(items), maxSize)
	}

	if len(items) == 0 {
		return append(items, add), zero, false, nil
	}

	isFull := len(items) == maxSize
	if isFull && cmp(items[len(items)-1], add) <= 0 {
		return items, add, true, nil
	}

	i := sort.Search(len(items), func(i int) bool {
		return cmp(items[i], add) > 0
	})
	items = append(items, zero)
	copy(items[i+1:], items[i:])
	items[i] = add

	if isFull {
		removed := items[len(items)-1]
		return items[:len(items)-1], removed, true, nil
	}
	return items, zero, false, nil
}
