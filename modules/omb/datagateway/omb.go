package datagateway

import (
	"context"

	"github.com/ordmarket/orderbook-engine/common"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
)

type OmbDataGateway interface {
	OmbReaderDataGateway
	OmbWriterDataGateway
}

type OmbReaderDataGateway interface {
	// GetOrderbook returns the latest persisted orderbook snapshot for
	// the given address and network. Returns errs.NotFound if no
	// snapshot has been persisted yet.
	GetOrderbook(ctx context.Context, address string, network common.Network) (*entity.Orderbook, error)
	// GetOrder returns the latest persisted projection of the order
	// with the given content id. Returns errs.NotFound if unknown.
	GetOrder(ctx context.Context, cid string) (*entity.Order, error)
	// GetOffer returns the latest persisted projection of the offer
	// with the given content id. Returns errs.NotFound if unknown.
	GetOffer(ctx context.Context, cid string) (*entity.Offer, error)
	// ListRegisteredAddresses returns every address registered for
	// scheduled re-resolution, across all networks.
	ListRegisteredAddresses(ctx context.Context) ([]entity.RegisteredAddress, error)
}

type OmbWriterDataGateway interface {
	// PutOrderbook replaces the persisted snapshot for the
	// orderbook's address and network, together with its order and
	// offer projections, in one transaction.
	PutOrderbook(ctx context.Context, orderbook *entity.Orderbook) error
	// RegisterAddress records an address for scheduled re-resolution.
	// Registering an already-known address is a no-op.
	RegisterAddress(ctx context.Context, address string, network common.Network) error
}
