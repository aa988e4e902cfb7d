package entity

import (
	"time"

	"github.com/ordmarket/orderbook-engine/common"
)

// RegisteredAddress is an orderbook address previously resolved at
// least once, picked up by the scheduled re-resolution worker.
type RegisteredAddress struct {
	Address      string         `json:"address"`
	Network      common.Network `json:"network"`
	RegisteredAt time.Time      `json:"registeredAt"`
}

// Key is the stable job identity for scheduled resolution.
func (a RegisteredAddress) Key() string {
	return string(a.Network) + ":" + a.Address
}
