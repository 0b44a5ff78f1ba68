// Package mongo provides a MongoDB store implementation backed by the
// Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/paywall"
	"github.com/xraph/paywall/content"
	"github.com/xraph/paywall/pass"
	"github.com/xraph/paywall/pricing"
	"github.com/xraph/paywall/receipt"
	paywallstore "github.com/xraph/paywall/store"
	"github.com/xraph/paywall/treasury"
	"github.com/xraph/paywall/types"
)

// Collection name constants.
const (
	colContent  = "paywall_content"
	colPasses   = "paywall_passes"
	colCounters = "paywall_counters"
	colTreasury = "paywall_treasury"
	colPrice    = "paywall_price"
	colReceipts = "paywall_receipts"
)

// compile-time interface check
var _ paywallstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all paywall collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("paywall/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return paywall.ErrContentRegistered
		}
		return fmt.Errorf("paywall/mongo: create content: %w", err)
	}
	return nil
}

func (s *Store) GetContent(ctx context.Context, fingerprint string) (*content.Record, error) {
	var m contentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": fingerprint}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, paywall.ErrContentNotRegistered
		}
		return nil, fmt.Errorf("paywall/mongo: get content: %w", err)
	}
	return fromContentModel(&m)
}

func (s *Store) ListContent(ctx context.Context, opts content.ListOpts) ([]*content.Record, error) {
	var models []contentModel

	filter := bson.M{}
	if opts.Owner != "" {
		filter["owner"] = opts.Owner
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("paywall/mongo: list content: %w", err)
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
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": "token"},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.Before),
	).Decode(&doc)
	if err != nil {
		// The first allocation upserts the counter document; there is
		// no pre-image to return, and the id handed out is zero.
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("paywall/mongo: next token id: %w", err)
	}
	return uint64(doc.Value), nil
}

func (s *Store) CreatePass(ctx context.Context, p *pass.Pass) error {
	m := toPassModel(p)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return paywall.ErrAlreadyExists
		}
		return fmt.Errorf("paywall/mongo: create pass: %w", err)
	}
	return nil
}

func (s *Store) GetPass(ctx context.Context, tokenID uint64) (*pass.Pass, error) {
	var m passModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(tokenID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, paywall.ErrUnknownToken
		}
		return nil, fmt.Errorf("paywall/mongo: get pass: %w", err)
	}
	return fromPassModel(&m), nil
}

func (s *Store) ListPasses(ctx context.Context, holder string, opts pass.ListOpts) ([]*pass.Pass, error) {
	var models []passModel

	filter := bson.M{"holder": holder}
	if opts.Fingerprint != "" {
		filter["fingerprint"] = opts.Fingerprint
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("paywall/mongo: list passes: %w", err)
	}

	result := make([]*pass.Pass, len(models))
	for i := range models {
		result[i] = fromPassModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdatePassHolder(ctx context.Context, tokenID uint64, holder string) error {
	res, err := s.mdb.NewUpdate((*passModel)(nil)).
		Filter(bson.M{"_id": int64(tokenID)}).
		Set("holder", holder).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("paywall/mongo: update pass holder: %w", err)
	}
	if res.MatchedCount() == 0 {
		return paywall.ErrUnknownToken
	}
	return nil
}

func (s *Store) PurgePasses(ctx context.Context, expiredBefore time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*passModel)(nil)).
		Filter(bson.M{"expires_at": bson.M{"$lt": expiredBefore}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("paywall/mongo: purge passes: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Treasury Store ====================

func (s *Store) Pools(ctx context.Context) (*treasury.Pools, error) {
	var m treasuryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": treasuryDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, paywall.ErrPoolsNotInitialized
		}
		return nil, fmt.Errorf("paywall/mongo: get pools: %w", err)
	}
	return fromTreasuryModel(&m), nil
}

func (s *Store) SavePools(ctx context.Context, p *treasury.Pools) error {
	m := toTreasuryModel(p)
	m.UpdatedAt = now()

	_, err := s.mdb.Collection(colTreasury).ReplaceOne(ctx,
		bson.M{"_id": treasuryDocID},
		m,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("paywall/mongo: save pools: %w", err)
	}
	return nil
}

// ==================== Price Policy Store ====================

func (s *Store) Price(ctx context.Context) (*pricing.Policy, error) {
	var m priceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": priceDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, paywall.ErrPriceNotSet
		}
		return nil, fmt.Errorf("paywall/mongo: get price: %w", err)
	}
	return fromPriceModel(&m), nil
}

func (s *Store) SetPrice(ctx context.Context, price types.Money) error {
	t := now()
	m := &priceModel{
		ID:          priceDocID,
		AmountCents: price.Amount,
		Currency:    price.Currency,
		CreatedAt:   t,
		UpdatedAt:   t,
	}

	_, err := s.mdb.Collection(colPrice).ReplaceOne(ctx,
		bson.M{"_id": priceDocID},
		m,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("paywall/mongo: set price: %w", err)
	}
	return nil
}

// ==================== Receipt Store ====================

func (s *Store) AppendReceipt(ctx context.Context, r *receipt.Receipt) error {
	m := toReceiptModel(r)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("paywall/mongo: append receipt: %w", err)
	}
	return nil
}

func (s *Store) ListReceipts(ctx context.Context, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	var models []receiptModel

	filter := bson.M{}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.Identity != "" {
		filter["identity"] = opts.Identity
	}
	if !opts.Since.IsZero() {
		filter["at"] = bson.M{"$gte": opts.Since}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("paywall/mongo: list receipts: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all paywall collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colContent: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colPasses: {
			{Keys: bson.D{{Key: "holder", Value: 1}}},
			{Keys: bson.D{{Key: "fingerprint", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		colReceipts: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "at", Value: 1}}},
			{Keys: bson.D{{Key: "identity", Value: 1}, {Key: "at", Value: 1}}},
		},
	}
}
