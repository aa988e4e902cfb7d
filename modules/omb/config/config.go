package config

import (
	"time"

	"github.com/ordmarket/orderbook-engine/internal/postgres"
	"github.com/ordmarket/orderbook-engine/pkg/cas"
)

type Config struct {
	Datasource  string          `mapstructure:"datasource"` // Datasource for ledger lookups, e.g. `bitcoin-node`
	Database    string          `mapstructure:"database"`   // Database to store orderbook snapshots, e.g. `postgres`
	Postgres    postgres.Config `mapstructure:"postgres"`
	Content     cas.Config      `mapstructure:"content"`
	APIHandlers []string        `mapstructure:"api_handlers"` // e.g. `http`

	// ResolveInterval is the period of the scheduled re-resolution of
	// registered addresses. Defaults to 5 minutes.
	ResolveInterval time.Duration `mapstructure:"resolve_interval"`

	// FeeRate is the default fee rate in sat/vB used by the
	// transaction builder when a request does not carry one.
	FeeRate int64 `mapstructure:"fee_rate"`

	// NetworkFee is a flat surcharge in satoshi added to every built
	// transaction's estimated fee.
	NetworkFee int64 `mapstructure:"network_fee"`
}
