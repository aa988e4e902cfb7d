package httphandler

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/ordmarket/orderbook-engine/common"
	"github.com/ordmarket/orderbook-engine/modules/omb/usecase"
)

type HttpHandler struct {
	usecase *usecase.Usecase
	network common.Network
}

func New(network common.Network, usecase *usecase.Usecase) *HttpHandler {
	return &HttpHandler{
		usecase: usecase,
		network: network,
	}
}

type HttpResponse[T any] struct {
	Error  *string `json:"error"`
	Result *T      `json:"result,omitempty"`
}

// isValidAddress reports whether the given string decodes as an
// address on the handler's network.
func (h *HttpHandler) isValidAddress(address string) bool {
	if address == "" {
		return false
	}
	_, err := btcutil.DecodeAddress(address, h.network.ChainParams())
	return err == nil
}
