package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/model"
)

// Schema таблица журнала. Применяется Migrate при старте.
const Schema = `
CREATE TABLE IF NOT EXISTS checkout_journal (
	id            UUID PRIMARY KEY,
	user_id       BIGINT NOT NULL,
	delivery      TEXT NOT NULL,
	payment       TEXT NOT NULL,
	address       TEXT NOT NULL DEFAULT '',
	subtotal      NUMERIC(12,2) NOT NULL,
	delivery_cost NUMERIC(12,2) NOT NULL,
	total         NUMERIC(12,2) NOT NULL,
	outcome       TEXT NOT NULL,
	order_id      BIGINT,
	message       TEXT NOT NULL DEFAULT '',
	occurred_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS checkout_journal_user_idx ON checkout_journal (user_id, occurred_at DESC);
`

const selectColumns = `
	SELECT id, user_id, delivery, payment, address, subtotal, delivery_cost, total,
	       outcome, order_id, message, occurred_at
	FROM checkout_journal`

// DBRepository журнал оформлений в postgres.
type DBRepository struct {
	db  *sql.DB
	log *zap.Logger
}

// NewJournalRepository создает репозиторий по переданному sql подключению
func NewJournalRepository(db *sql.DB, log *zap.Logger) *DBRepository {
	return &DBRepository{db: db, log: log}
}

func (r *DBRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate checkout_journal: %w", err)
	}
	return nil
}

// Save upsert по id: повторная доставка события из kafka перезаписывает ту же строку.
func (r *DBRepository) Save(ctx context.Context, ev *model.CheckoutEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.log.Warn("rollback", zap.Error(err))
		}
	}()

	if err := r.saveEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID запись журнала по id, model.ErrNotFound если ее нет.
func (r *DBRepository) GetByID(ctx context.Context, id string) (*model.CheckoutEvent, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journal %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get journal %s: %w", id, err)
	}
	return ev, nil
}

// ListByUser последние записи пользователя, новые первыми.
func (r *DBRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.CheckoutEvent, error) {
	return r.query(ctx, selectColumns+` WHERE user_id = $1 ORDER BY occurred_at DESC LIMIT $2`, userID, limit)
}

// GetRecent последние записи всех пользователей, для прогрева кэша.
func (r *DBRepository) GetRecent(ctx context.Context, limit int) ([]*model.CheckoutEvent, error) {
	return r.query(ctx, selectColumns+` ORDER BY occurred_at DESC LIMIT $1`, limit)
}

func (r *DBRepository) query(ctx context.Context, q string, args ...any) ([]*model.CheckoutEvent, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.log.Warn("rows close", zap.Error(err))
		}
	}()

	events := make([]*model.CheckoutEvent, 0, 16)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

//
// ---------------- PRIVATE ----------------
//

func (r *DBRepository) saveEvent(ctx context.Context, tx *sql.Tx, ev *model.CheckoutEvent) error {
	var orderID sql.NullInt64
	if ev.OrderID != 0 {
		orderID = sql.NullInt64{Int64: ev.OrderID, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO checkout_journal (
			id, user_id, delivery, payment, address, subtotal, delivery_cost, total,
			outcome, order_id, message, occurred_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			delivery = EXCLUDED.delivery,
			payment = EXCLUDED.payment,
			address = EXCLUDED.address,
			subtotal = EXCLUDED.subtotal,
			delivery_cost = EXCLUDED.delivery_cost,
			total = EXCLUDED.total,
			outcome = EXCLUDED.outcome,
			order_id = EXCLUDED.order_id,
			message = EXCLUDED.message,
			occurred_at = EXCLUDED.occurred_at
	`, ev.ID, ev.UserID, ev.Delivery, ev.Payment, ev.Address, ev.Subtotal, ev.DeliveryCost, ev.Total,
		string(ev.Outcome), orderID, ev.Message, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("saveEvent: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.CheckoutEvent, error) {
	var (
		ev      model.CheckoutEvent
		outcome string
		orderID sql.NullInt64
	)
	if err := row.Scan(&ev.ID, &ev.UserID, &ev.Delivery, &ev.Payment, &ev.Address,
		&ev.Subtotal, &ev.DeliveryCost, &ev.Total, &outcome, &orderID, &ev.Message, &ev.OccurredAt); err != nil {
		return nil, err
	}
	ev.Outcome = model.CheckoutOutcome(outcome)
	ev.OrderID = orderID.Int64
	return &ev, nil
}
