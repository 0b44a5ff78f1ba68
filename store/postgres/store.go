// Package postgres provides a PostgreSQL store implementation backed by
// the Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/paywall"
	"github.com/xraph/paywall/content"
	"github.com/xraph/paywall/pass"
	"github.com/xraph/paywall/pricing"
	"github.com/xraph/paywall/receipt"
	paywallstore "github.com/xraph/paywall/store"
	"github.com/xraph/paywall/treasury"
	"github.com/xraph/paywall/types"
)

// compile-time interface check
var _ paywallstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("paywall/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("paywall/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Content Store ====================

func (s *Store) CreateContent(ctx context.Context, r *content.Record) error {
	m := toContentModel(r)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetContent(ctx context.Context, fingerprint string) (*content.Record, error) {
	m := new(contentModel)
	err := s.pg.NewSelect(m).
		Where("fingerprint = $1", fingerprint).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, paywall.ErrContentNotRegistered
		}
		return nil, err
	}
	return fromContentModel(m)
}

func (s *Store) ListContent(ctx context.Context, opts content.ListOpts) ([]*content.Record, error) {
	var models []contentModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Owner != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("owner = $%d", argIdx), opts.Owner)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("fingerprint ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*content.Record, len(models))
	for i := range models {
		r, err := fromContentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Pass Store ====================

func (s *Store) NextTokenID(ctx context.Context) (uint64, error) {
	var next int64
	err := s.pg.NewRaw(`
		UPDATE paywall_counters SET value = value + 1
		WHERE name = 'token'
		RETURNING value
	`).Scan(ctx, &next)
	if err != nil {
		return 0, err
	}
	// The counter row stores the count of allocated ids; the id just
	// allocated is one less than the post-increment value.
	return uint64(next - 1), nil
}

func (s *Store) CreatePass(ctx context.Context, p *pass.Pass) error {
	m := toPassModel(p)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetPass(ctx context.Context, tokenID uint64) (*pass.Pass, error) {
	m := new(passModel)
	err := s.pg.NewSelect(m).
		Where("token_id = $1", int64(tokenID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, paywall.ErrUnknownToken
		}
		return nil, err
	}
	return fromPassModel(m), nil
}

func (s *Store) ListPasses(ctx context.Context, holder string, opts pass.ListOpts) ([]*pass.Pass, error) {
	var models []passModel
	q := s.pg.NewSelect(&models).Where("holder = $1", holder)

	argIdx := 1
	if opts.Fingerprint != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("fingerprint = $%d", argIdx), opts.Fingerprint)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("token_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*pass.Pass, len(models))
	for i := range models {
		result[i] = fromPassModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdatePassHolder(ctx context.Context, tokenID uint64, holder string) error {
	res, err := s.pg.NewUpdate((*passModel)(nil)).
		Set("holder = $1", holder).
		Set("updated_at = $2", now()).
		Where("token_id = $3", int64(tokenID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return paywall.ErrUnknownToken
	}
	return nil
}

func (s *Store) PurgePasses(ctx context.Context, expiredBefore time.Time) (int64, error) {
	res, err := s.pg.NewDelete((*passModel)(nil)).
		Where("expires_at < $1", expiredBefore).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// ==================== Treasury Store ====================

func (s *Store) Pools(ctx context.Context) (*treasury.Pools, error) {
	m := new(treasuryModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", treasuryRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, paywall.ErrPoolsNotInitialized
		}
		return nil, err
	}
	return fromTreasuryModel(m), nil
}

func (s *Store) SavePools(ctx context.Context, p *treasury.Pools) error {
	m := toTreasuryModel(p)
	m.UpdatedAt = now()
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("owner_cents = EXCLUDED.owner_cents").
		Set("operator_cents = EXCLUDED.operator_cents").
		Set("currency = EXCLUDED.currency").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Price Policy Store ====================

func (s *Store) Price(ctx context.Context) (*pricing.Policy, error) {
	m := new(priceModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", priceRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, paywall.ErrPriceNotSet
		}
		return nil, err
	}
	return fromPriceModel(m), nil
}

func (s *Store) SetPrice(ctx context.Context, price types.Money) error {
	t := now()
	m := &priceModel{
		ID:          priceRowID,
		AmountCents: price.Amount,
		Currency:    price.Currency,
		CreatedAt:   t,
		UpdatedAt:   t,
	}
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("amount_cents = EXCLUDED.amount_cents").
		Set("currency = EXCLUDED.currency").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Receipt Store ====================

func (s *Store) AppendReceipt(ctx context.Context, r *receipt.Receipt) error {
	m := toReceiptModel(r)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListReceipts(ctx context.Context, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	var models []receiptModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.Identity != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("identity = $%d", argIdx), opts.Identity)
	}
	if !opts.Since.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("at >= $%d", argIdx), opts.Since)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*receipt.Receipt, len(models))
	for i := range models {
		r, err := fromReceiptModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
