package common

import "github.com/btcsuite/btcd/chaincfg"

type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkRegtest Network = "regtest"
)

var supportedNetworks = map[Network]struct{}{
	NetworkMainnet: {},
	NetworkTestnet: {},
	NetworkRegtest: {},
}

var chainParams = map[Network]*chaincfg.Params{
	NetworkMainnet: &chaincfg.MainNetParams,
	NetworkTestnet: &chaincfg.TestNet3Params,
	NetworkRegtest: &chaincfg.RegressionNetParams,
}

func (n Network) IsSupported() bool {
	_, ok := supportedNetworks[n]
	return ok
}

func (n Network) ChainParams() *chaincfg.Params {
	return chainParams[n]
}

func (n Network) String() string {
	return string(n)
}

// Priority orders networks for scheduling. Lower value runs first.
func (n Network) Priority() int {
	switch n {
	case NetworkMainnet:
		return 0
	case NetworkTestnet:
		return 1
	default:
		return 2
	}
}
