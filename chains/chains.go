// Package chains names the networks the quoter knows and where their pool factory lives.
package chains

import (
	"fmt"

	"github.com/defistate/uniswapv3-sdk-go/protocols/uniswapv3"
	"github.com/ethereum/go-ethereum/common"
)

const (
	Mainnet  uint64 = 1
	Optimism uint64 = 10
	Polygon  uint64 = 137
	Base     uint64 = 8453
	Arbitrum uint64 = 42161
)

// Deployment is a pool factory and the init code hash of the pools it creates.
type Deployment struct {
	Factory      common.Address
	InitCodeHash common.Hash
}

var canonical = Deployment{
	Factory:      uniswapv3.FactoryAddress,
	InitCodeHash: uniswapv3.PoolInitCodeHash,
}

var deployments = map[uint64]Deployment{
	Mainnet:  canonical,
	Optimism: canonical,
	Polygon:  canonical,
	Arbitrum: canonical,
	Base: {
		Factory:      common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD"),
		InitCodeHash: uniswapv3.PoolInitCodeHash,
	},
}

var names = map[uint64]string{
	Mainnet:  "mainnet",
	Optimism: "optimism",
	Polygon:  "polygon",
	Base:     "base",
	Arbitrum: "arbitrum",
}

// UniswapV3 returns the pool factory deployment on chainID.
func UniswapV3(chainID uint64) (Deployment, bool) {
	d, ok := deployments[chainID]
	return d, ok
}

func Name(chainID uint64) string {
	if n, ok := names[chainID]; ok {
		return n
	}
	return fmt.Sprintf("chain-%d", chainID)
}
