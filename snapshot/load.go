package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/defistate/uniswapv3-sdk-go/chains"
	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidHash    = errors.New("invalid init code hash")
	ErrDuplicateToken = errors.New("duplicate token")
	ErrDuplicatePool  = errors.New("duplicate pool")
	ErrUnknownToken   = errors.New("unknown token")
	ErrMissingField   = errors.New("missing field")

	ErrUnknownDeployment = errors.New("no known pool factory, set factory in the snapshot")
)

// DefaultChainID is used when a snapshot does not name its chain.
const DefaultChainID = 1

// Load reads and validates a snapshot file. JSON files decode as YAML.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return s, nil
}

// Decode reads a snapshot from r, rejecting unknown fields, and fills in defaults:
// the chain id, the chain's pool factory and init code hash, pool tick spacings from
// the fee, and pool addresses computed from the factory.
func Decode(r io.Reader) (*Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty snapshot")
		}
		return nil, err
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Encode writes s as YAML.
func Encode(w io.Writer, s *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func (s *Snapshot) normalize() error {
	if s.ChainID == 0 {
		s.ChainID = DefaultChainID
	}

	factory, initCodeHash, err := s.deployment()
	if err != nil {
		return err
	}
	s.Factory = factory.Hex()
	s.InitCodeHash = initCodeHash.Hex()

	tokens := make(map[common.Address]*uniswapv3.Token, len(s.Tokens))
	for i := range s.Tokens {
		t := &s.Tokens[i]
		addr, err := parseAddress(t.Address)
		if err != nil {
			return fmt.Errorf("token %d: %w", i, err)
		}
		if _, ok := tokens[addr]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateToken, addr)
		}
		t.Address = addr.Hex()
		tokens[addr] = uniswapv3.NewToken(s.ChainID, addr, t.Decimals, t.Symbol, t.Name)
	}

	pools := make(map[common.Address]struct{}, len(s.Pools))
	for i := range s.Pools {
		p := &s.Pools[i]
		if err := p.normalize(tokens, factory, initCodeHash); err != nil {
			return fmt.Errorf("pool %d: %w", i, err)
		}
		addr := common.HexToAddress(p.Address)
		if _, ok := pools[addr]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePool, addr)
		}
		pools[addr] = struct{}{}
	}
	return nil
}

// deployment resolves the pool factory, defaulting to the known deployment of the chain.
func (s *Snapshot) deployment() (common.Address, common.Hash, error) {
	d, known := chains.UniswapV3(s.ChainID)

	if s.Factory != "" {
		addr, err := parseAddress(s.Factory)
		if err != nil {
			return common.Address{}, common.Hash{}, fmt.Errorf("factory: %w", err)
		}
		d.Factory = addr
	} else if !known {
		return common.Address{}, common.Hash{}, fmt.Errorf("%w: %s", ErrUnknownDeployment, chains.Name(s.ChainID))
	}

	if s.InitCodeHash != "" {
		h := strings.TrimPrefix(s.InitCodeHash, "0x")
		if len(h) != 2*common.HashLength {
			return common.Address{}, common.Hash{}, fmt.Errorf("%w: %q", ErrInvalidHash, s.InitCodeHash)
		}
		d.InitCodeHash = common.HexToHash(h)
	} else if !known {
		d.InitCodeHash = uniswapv3.PoolInitCodeHash
	}
	return d.Factory, d.InitCodeHash, nil
}

func (p *PoolView) normalize(tokens map[common.Address]*uniswapv3.Token, factory common.Address, initCodeHash common.Hash) error {
	if p.Liquidity.Int == nil {
		return fmt.Errorf("%w: liquidity", ErrMissingField)
	}
	if p.SqrtPriceX96.Int == nil {
		return fmt.Errorf("%w: sqrtPriceX96", ErrMissingField)
	}

	token0, err := lookupToken(tokens, p.Token0)
	if err != nil {
		return fmt.Errorf("token0: %w", err)
	}
	token1, err := lookupToken(tokens, p.Token1)
	if err != nil {
		return fmt.Errorf("token1: %w", err)
	}
	p.Token0, p.Token1 = token0.Address.Hex(), token1.Address.Hex()

	if p.TickSpacing == 0 {
		spacing, ok := uniswapv3.TickSpacings[p.Fee]
		if !ok {
			return fmt.Errorf("%w: no tick spacing for fee %d", uniswapv3.ErrTickSpacing, p.Fee)
		}
		p.TickSpacing = spacing
	}

	if p.Address == "" {
		addr, err := uniswapv3.ComputePoolAddress(factory, token0, token1, p.Fee, initCodeHash)
		if err != nil {
			return err
		}
		p.Address = addr.Hex()
	} else {
		addr, err := parseAddress(p.Address)
		if err != nil {
			return err
		}
		p.Address = addr.Hex()
	}

	for j, t := range p.Ticks {
		if t.LiquidityGross.Int == nil || t.LiquidityNet.Int == nil {
			return fmt.Errorf("%w: tick %d liquidity", ErrMissingField, j)
		}
	}
	return nil
}

func lookupToken(tokens map[common.Address]*uniswapv3.Token, s string) (*uniswapv3.Token, error) {
	addr, err := parseAddress(s)
	if err != nil {
		return nil, err
	}
	t, ok := tokens[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, addr)
	}
	return t, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}
