package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookcore/internal/domain"
	"bookcore/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)

// PgRepo journals orders and depth snapshots in Postgres. It is an external
// collaborator of the book: nothing on the book's hot path waits on it.
//
// Expected schema:
//
//	CREATE TABLE orders (
//	    id       BIGINT PRIMARY KEY,
//	    side     TEXT NOT NULL,
//	    price    DOUBLE PRECISION NOT NULL,
//	    quantity BIGINT NOT NULL,
//	    ts_ns    BIGINT NOT NULL,
//	    resting  BOOLEAN NOT NULL,
//	    seq      BIGSERIAL
//	);
//	CREATE TABLE order_events (
//	    order_id BIGINT NOT NULL,
//	    kind     TEXT NOT NULL,
//	    price    DOUBLE PRECISION NOT NULL,
//	    quantity BIGINT NOT NULL,
//	    at       TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE depth_snapshots (
//	    id            TEXT PRIMARY KEY,
//	    symbol        TEXT NOT NULL,
//	    snapshot_json JSONB NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
type PgRepo struct {
	pool *pgxpool.Pool
}

// call Close when finished working with the database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return errors.New("nil order")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO orders(id, side, price, quantity, ts_ns, resting)
VALUES($1,$2,$3,$4,$5,TRUE)
ON CONFLICT (id) DO UPDATE SET
  side = EXCLUDED.side,
  price = EXCLUDED.price,
  quantity = EXCLUDED.quantity,
  ts_ns = EXCLUDED.ts_ns,
  resting = TRUE,
  seq = nextval('orders_seq_seq')
`, int64(o.ID), string(o.Side), o.Price, int64(o.Quantity), o.Timestamp)
	return err
}

func (p *PgRepo) MarkCancelled(ctx context.Context, orderID uint64) error {
	res, err := p.pool.Exec(ctx, `
UPDATE orders SET resting = FALSE WHERE id = $1 AND resting
`, int64(orderID))
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errors.New("order not found or not resting")
	}
	return nil
}

// MarkAmended updates the resting row and appends an audit event in one
// transaction.
func (p *PgRepo) MarkAmended(ctx context.Context, orderID uint64, price float64, qty uint64) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
UPDATE orders SET price = $1, quantity = $2 WHERE id = $3 AND resting
`, price, int64(qty), int64(orderID))
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errors.New("order not found or not resting")
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO order_events(order_id, kind, price, quantity, at)
VALUES($1,'AMEND',$2,$3,NOW())
`, int64(orderID), price, int64(qty)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LoadRestingOrders returns resting orders oldest journal entry first, so
// re-adding them rebuilds queue priority.
func (p *PgRepo) LoadRestingOrders(ctx context.Context, symbol string) ([]*domain.Order, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, side, price, quantity, ts_ns
FROM orders
WHERE resting
ORDER BY seq ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Order
	for rows.Next() {
		var o domain.Order
		var id, qty, ts int64
		var side string
		if err := rows.Scan(&id, &side, &o.Price, &qty, &ts); err != nil {
			return nil, err
		}
		o.ID = uint64(id)
		o.Side = domain.Side(side)
		o.Quantity = uint64(qty)
		o.Timestamp = ts
		res = append(res, &o)
	}
	return res, rows.Err()
}

// SaveSnapshot persists a depth snapshot as JSONB.
func (p *PgRepo) SaveSnapshot(ctx context.Context, snapshotID string, snap *domain.DepthSnapshot) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO depth_snapshots(id, symbol, snapshot_json, created_at)
VALUES($1,$2,$3,NOW())
ON CONFLICT (id) DO UPDATE SET snapshot_json = EXCLUDED.snapshot_json, created_at = NOW()
`, snapshotID, snap.Symbol, string(b))
	return err
}

func (p *PgRepo) LoadSnapshot(ctx context.Context, snapshotID string) (*domain.DepthSnapshot, error) {
	var data string
	if err := p.pool.QueryRow(ctx, `SELECT snapshot_json FROM depth_snapshots WHERE id = $1`, snapshotID).Scan(&data); err != nil {
		return nil, err
	}
	var snap domain.DepthSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
