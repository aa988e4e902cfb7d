package usecase

import (
	"github.com/ordmarket/orderbook-engine/common"
	"github.com/ordmarket/orderbook-engine/core/datasources"
	"github.com/ordmarket/orderbook-engine/modules/omb/omb"
	"github.com/ordmarket/orderbook-engine/modules/omb/datagateway"
)

type Usecase struct {
	ombDg     datagateway.OmbDataGateway
	lookup    datasources.LookupService
	storage   omb.ContentStorage
	network   common.Network
	validator *omb.SignatureValidator

	feeRate    int64
	networkFee int64
}

func New(ombDg datagateway.OmbDataGateway, lookup datasources.LookupService, storage omb.ContentStorage, network common.Network, feeRate, networkFee int64) *Usecase {
	return &Usecase{
		ombDg:      ombDg,
		lookup:     lookup,
		storage:    storage,
		network:    network,
		validator:  omb.NewSignatureValidator(network.ChainParams()),
		feeRate:    feeRate,
		networkFee: networkFee,
	}
}
