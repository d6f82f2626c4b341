package uniswapv3

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// FactoryAddress is the canonical pool factory on Ethereum mainnet.
	FactoryAddress = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	// PoolInitCodeHash is the keccak256 of the pool creation code deployed by FactoryAddress.
	PoolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")
)

var (
	saltArgumentsOnce sync.Once
	saltArguments     abi.Arguments
	saltArgumentsErr  error
)

// poolSaltArguments describes abi.encode(address token0, address token1, uint24 fee).
func poolSaltArguments() (abi.Arguments, error) {
	saltArgumentsOnce.Do(func() {
		addressType, err := abi.NewType("address", "", nil)
		if err != nil {
			saltArgumentsErr = err
			return
		}
		feeType, err := abi.NewType("uint24", "", nil)
		if err != nil {
			saltArgumentsErr = err
			return
		}
		saltArguments = abi.Arguments{{Type: addressType}, {Type: addressType}, {Type: feeType}}
	})
	return saltArguments, saltArgumentsErr
}

// ComputePoolAddress derives the CREATE2 address of the pool for a token pair and fee.
func ComputePoolAddress(factory common.Address, tokenA, tokenB *Token, fee uint32, initCodeHash common.Hash) (common.Address, error) {
	token0, token1, err := sortTokens(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}

	args, err := poolSaltArguments()
	if err != nil {
		return common.Address{}, fmt.Errorf("pool salt arguments: %w", err)
	}
	encoded, err := args.Pack(token0.Address, token1.Address, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("encode pool salt: %w", err)
	}

	salt := crypto.Keccak256Hash(encoded)
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes()), nil
}
