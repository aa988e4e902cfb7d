package postgres

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/ordmarket/orderbook-engine/common"
	"github.com/ordmarket/orderbook-engine/common/errs"
	"github.com/ordmarket/orderbook-engine/internal/postgres"
	"github.com/ordmarket/orderbook-engine/modules/omb/datagateway"
	"github.com/ordmarket/orderbook-engine/modules/omb/entity"
)

var _ datagateway.OmbDataGateway = (*Repository)(nil)

// Repository persists orderbook snapshots and entity projections as
// JSONB documents keyed by content id and by address/network pair.
type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetOrderbook(ctx context.Context, address string, network common.Network) (*entity.Orderbook, error) {
	var snapshot []byte
	err := r.db.QueryRow(ctx, `SELECT snapshot FROM omb_orderbooks WHERE address = $1 AND network = $2;`, address, string(network)).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "no orderbook snapshot for %s on %s", address, network)
		}
		return nil, errors.Wrap(err, "failed to query orderbook snapshot")
	}
	var orderbook entity.Orderbook
	if err := json.Unmarshal(snapshot, &orderbook); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal orderbook snapshot")
	}
	return &orderbook, nil
}

func (r *Repository) GetOrder(ctx context.Context, cid string) (*entity.Order, error) {
	var snapshot []byte
	err := r.db.QueryRow(ctx, `SELECT snapshot FROM omb_orders WHERE cid = $1;`, cid).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "no order with content id %q", cid)
		}
		return nil, errors.Wrap(err, "failed to query order snapshot")
	}
	var order entity.Order
	if err := json.Unmarshal(snapshot, &order); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal order snapshot")
	}
	return &order, nil
}

func (r *Repository) GetOffer(ctx context.Context, cid string) (*entity.Offer, error) {
	var snapshot []byte
	err := r.db.QueryRow(ctx, `SELECT snapshot FROM omb_offers WHERE cid = $1;`, cid).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "no offer with content id %q", cid)
		}
		return nil, errors.Wrap(err, "failed to query offer snapshot")
	}
	var offer entity.Offer
	if err := json.Unmarshal(snapshot, &offer); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal offer snapshot")
	}
	return &offer, nil
}

func (r *Repository) ListRegisteredAddresses(ctx context.Context) ([]entity.RegisteredAddress, error) {
	rows, err := r.db.Query(ctx, `SELECT address, network, registered_at FROM omb_addresses ORDER BY network, address;`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query registered addresses")
	}
	defer rows.Close()

	var addresses []entity.RegisteredAddress
	for rows.Next() {
		var addr entity.RegisteredAddress
		var network string
		if err := rows.Scan(&addr.Address, &network, &addr.RegisteredAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan registered address")
		}
		addr.Network = common.Network(network)
		addresses = append(addresses, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate registered addresses")
	}
	return addresses, nil
}

// PutOrderbook replaces the snapshot and every contained projection in
// one transaction, so readers never observe a half-written run.
func (r *Repository) PutOrderbook(ctx context.Context, orderbook *entity.Orderbook) error {
	snapshot, err := json.Marshal(orderbook)
	if err != nil {
		return errors.Wrap(err, "failed to marshal orderbook snapshot")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO omb_orderbooks (address, network, snapshot, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address, network) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at;`,
		orderbook.Address, string(orderbook.Network), snapshot, orderbook.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert orderbook snapshot")
	}

	batch := &pgx.Batch{}
	for _, bucket := range []entity.Bucket{orderbook.Pending, orderbook.Rejected, orderbook.Completed} {
		for _, order := range bucket.Orders {
			doc, err := json.Marshal(order)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal order %q", order.Cid)
			}
			batch.Queue(`
				INSERT INTO omb_orders (cid, address, network, status, snapshot, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (cid) DO UPDATE SET status = EXCLUDED.status, snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at;`,
				order.Cid, orderbook.Address, string(orderbook.Network), string(order.Status), doc, orderbook.UpdatedAt,
			)
		}
		for _, offer := range bucket.Offers {
			doc, err := json.Marshal(offer)
			if err != nil {
				return errors.Wrapf(err, "failed to marshal offer %q", offer.Cid)
			}
			batch.Queue(`
				INSERT INTO omb_offers (cid, address, network, status, snapshot, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (cid) DO UPDATE SET status = EXCLUDED.status, snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at;`,
				offer.Cid, orderbook.Address, string(orderbook.Network), string(offer.Status), doc, orderbook.UpdatedAt,
			)
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "failed to upsert orderbook projections")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func (r *Repository) RegisterAddress(ctx context.Context, address string, network common.Network) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO omb_addresses (address, network, registered_at)
		VALUES ($1, $2, now())
		ON CONFLICT (address, network) DO NOTHING;`,
		address, string(network),
	)
	if err != nil {
		return errors.Wrap(err, "failed to register address")
	}
	return nil
}
