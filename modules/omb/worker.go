package omb

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ordmarket/orderbook-engine/common"
	"github.com/ordmarket/orderbook-engine/internal/scheduler"
	"github.com/ordmarket/orderbook-engine/modules/omb/datagateway"
	"github.com/ordmarket/orderbook-engine/modules/omb/usecase"
	"github.com/ordmarket/orderbook-engine/pkg/logger"
	"github.com/ordmarket/orderbook-engine/pkg/logger/slogx"
)

// DefaultResolveInterval is the period between scheduled re-resolution
// sweeps over registered addresses.
const DefaultResolveInterval = 5 * time.Minute

// Worker periodically re-resolves every registered orderbook address
// on its network, so persisted snapshots track the ledger without
// client requests. Job identity is network:address, so an address
// registered twice is still resolved once per sweep.
type Worker struct {
	usecase   *usecase.Usecase
	ombDg     datagateway.OmbDataGateway
	network   common.Network
	scheduler *scheduler.Scheduler
}

func NewWorker(uc *usecase.Usecase, ombDg datagateway.OmbDataGateway, network common.Network, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultResolveInterval
	}
	w := &Worker{
		usecase: uc,
		ombDg:   ombDg,
		network: network,
	}
	w.scheduler = scheduler.New(interval, w.jobs)
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	return errors.WithStack(w.scheduler.Run(ctx))
}

// jobs snapshots the registered address set at the start of each
// sweep. Addresses registered for other networks are left to the
// process serving that network.
func (w *Worker) jobs(ctx context.Context) ([]scheduler.Job, error) {
	addresses, err := w.ombDg.ListRegisteredAddresses(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	jobs := make([]scheduler.Job, 0, len(addresses))
	for _, addr := range addresses {
		if addr.Network != w.network {
			continue
		}
		addr := addr
		jobs = append(jobs, scheduler.Job{
			Key:      addr.Key(),
			Priority: addr.Network.Priority(),
			Run: func(ctx context.Context) error {
				_, skipped, err := w.usecase.ResolveOrderbook(ctx, addr.Address)
				if err != nil {
					return errors.WithStack(err)
				}
				if len(skipped) > 0 {
					logger.WarnContext(ctx, "resolution run skipped unresolvable content",
						slogx.String("address", addr.Address),
						slogx.Int("skipped", len(skipped)),
					)
				}
				return nil
			},
		})
	}
	return jobs, nil
}
