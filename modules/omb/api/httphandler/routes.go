package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1/omb")

	r.Get("/orderbook/:address", h.GetOrderbook)
	r.Post("/orderbook/:address/resolve", h.ResolveOrderbook)
	r.Get("/orders/:cid", h.GetOrder)
	r.Post("/orders", h.CreateOrder)
	r.Get("/offers/:cid", h.GetOffer)
	r.Post("/offers", h.CreateOffer)
	return nil
}
