package ticklist

import (
	"context"
	"errors"
	"slices"
)

// ErrNoTickData is returned by NoTickDataProvider for every lookup.
var ErrNoTickData = errors.New("no tick data provider was given")

// TickDataProvider supplies initialized tick data to the swap simulation.
type TickDataProvider interface {
	// GetTick returns the initialized tick at index, failing if it is absent.
	GetTick(ctx context.Context, index int) (Tick, error)
	// NextInitializedTickWithinOneWord returns the next initialized tick within the word
	// containing tick, or the word boundary if there is none.
	NextInitializedTickWithinOneWord(ctx context.Context, tick int, lte bool, tickSpacing int) (int, bool, error)
}

// NoTickDataProvider fails every lookup. It is the default provider for pools built
// without tick data.
type NoTickDataProvider struct{}

func (NoTickDataProvider) GetTick(context.Context, int) (Tick, error) {
	return Tick{}, ErrNoTickData
}

func (NoTickDataProvider) NextInitializedTickWithinOneWord(context.Context, int, bool, int) (int, bool, error) {
	return 0, false, ErrNoTickData
}

// ListProvider serves ticks from a validated in-memory list.
type ListProvider struct {
	ticks       []Tick
	tickSpacing int
}

// NewListProvider validates ticks against tickSpacing and keeps a private copy of them.
func NewListProvider(ticks []Tick, tickSpacing int) (*ListProvider, error) {
	if err := Validate(ticks, tickSpacing); err != nil {
		return nil, err
	}
	return &ListProvider{
		ticks:       slices.Clone(ticks),
		tickSpacing: tickSpacing,
	}, nil
}

// Ticks returns a copy of the initialized ticks.
func (p *ListProvider) Ticks() []Tick {
	return slices.Clone(p.ticks)
}

// TickSpacing returns the spacing the list was validated against.
func (p *ListProvider) TickSpacing() int {
	return p.tickSpacing
}

func (p *ListProvider) GetTick(ctx context.Context, index int) (Tick, error) {
	if err := ctx.Err(); err != nil {
		return Tick{}, err
	}
	return GetTick(p.ticks, index)
}

func (p *ListProvider) NextInitializedTickWithinOneWord(ctx context.Context, tick int, lte bool, tickSpacing int) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	return NextInitializedTickWithinOneWord(p.ticks, tick, lte, tickSpacing)
}
