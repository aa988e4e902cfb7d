package api

import (
	"github.com/ordmarket/orderbook-engine/common"
	"github.com/ordmarket/orderbook-engine/modules/omb/api/httphandler"
	"github.com/ordmarket/orderbook-engine/modules/omb/usecase"
)

func NewHTTPHandler(network common.Network, usecase *usecase.Usecase) *httphandler.HttpHandler {
	return httphandler.New(network, usecase)
}
