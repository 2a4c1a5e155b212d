package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"sort"
	"syscall"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/store/schema"
	"github.com/paystream/payment-analytics/internal/views"
)

// expiresAtColumn stamps TTL-bearing rows; populated on write, enforced by the sweeper
const expiresAtColumn = "expires_at"

type pgStore struct {
	db    *gorm.DB
	clock adapter.Clock
	// keyColumns maps view name to its ordered conflict target columns
	keyColumns map[string][]string
	// ttlViews marks views whose rows carry an expiry deadline
	ttlViews map[string]bool
}

// NewPGStore creates a PostgreSQL-backed ViewStore over the given descriptor set
func NewPGStore(db *gorm.DB, descriptors []views.Descriptor, clock adapter.Clock) ViewStore {
	keyColumns := make(map[string][]string, len(descriptors))
	ttlViews := make(map[string]bool)
	for _, desc := range descriptors {
		keyColumns[desc.Name] = desc.KeyFields()
		if desc.TTL > 0 {
			ttlViews[desc.Name] = true
		}
	}
	return &pgStore{db: db, clock: clock, keyColumns: keyColumns, ttlViews: ttlViews}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// Upsert writes one row, overwriting non-key columns on key conflict
func (s *pgStore) Upsert(ctx context.Context, view string, key map[string]any, values map[string]any, ttl time.Duration) error {
	keyCols, ok := s.keyColumns[view]
	if !ok {
		return &domain.PermanentBackendError{Cause: fmt.Errorf("%w: %s", domain.ErrViewNotFound, view)}
	}

	row := make(map[string]any, len(key)+len(values)+1)
	for col, v := range key {
		row[col] = v
	}
	for col, v := range values {
		row[col] = v
	}
	if ttl > 0 && s.ttlViews[view] {
		row[expiresAtColumn] = s.clock.Now().UTC().Add(ttl)
	}

	updateCols := nonKeyColumns(row, keyCols)
	conflict := clause.OnConflict{Columns: conflictColumns(keyCols)}
	if len(updateCols) > 0 {
		conflict.DoUpdates = clause.AssignmentColumns(updateCols)
	} else {
		conflict.DoNothing = true
	}

	err := s.db.WithContext(ctx).Table(view).Clauses(conflict).Create(row).Error
	if err != nil {
		return classifyBackendError(fmt.Errorf("failed to upsert into %s: %w", view, err))
	}
	return nil
}

// Increment atomically accumulates counter deltas, creating the row if absent.
// The update arm references EXCLUDED so the addition happens inside the
// statement; no read-before-write.
func (s *pgStore) Increment(ctx context.Context, view string, key map[string]any, deltas map[string]int64) error {
	keyCols, ok := s.keyColumns[view]
	if !ok {
		return &domain.PermanentBackendError{Cause: fmt.Errorf("%w: %s", domain.ErrViewNotFound, view)}
	}
	if len(deltas) == 0 {
		return &domain.PermanentBackendError{Cause: fmt.Errorf("no counter deltas for view %s", view)}
	}

	row := make(map[string]any, len(key)+len(deltas))
	for col, v := range key {
		row[col] = v
	}
	assignments := make(map[string]any, len(deltas))
	for col, delta := range deltas {
		row[col] = delta
		assignments[col] = gorm.Expr(fmt.Sprintf("%s.%s + EXCLUDED.%s", view, col, col))
	}

	err := s.db.WithContext(ctx).Table(view).Clauses(clause.OnConflict{
		Columns:   conflictColumns(keyCols),
		DoUpdates: clause.Assignments(assignments),
	}).Create(row).Error
	if err != nil {
		return classifyBackendError(fmt.Errorf("failed to increment %s: %w", view, err))
	}
	return nil
}

// DeleteExpired removes rows whose expiry deadline has passed
func (s *pgStore) DeleteExpired(ctx context.Context, view string, now time.Time) (int64, error) {
	if !s.ttlViews[view] {
		return 0, &domain.PermanentBackendError{Cause: fmt.Errorf("view %s does not carry row expiry", view)}
	}

	result := s.db.WithContext(ctx).Table(view).Where(expiresAtColumn+" <= ?", now).Delete(nil)
	if result.Error != nil {
		return 0, classifyBackendError(fmt.Errorf("failed to delete expired rows from %s: %w", view, result.Error))
	}
	return result.RowsAffected, nil
}

// RecentTransactionsByUser returns a user's most recent transactions, newest first
func (s *pgStore) RecentTransactionsByUser(ctx context.Context, userID string, limit int) ([]schema.TransactionByUser, error) {
	var rows []schema.TransactionByUser
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("transaction_time DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transactions: %w", err)
	}
	return rows, nil
}

// TransactionsByCategory returns a user's most recent transactions within one
// category, newest first
func (s *pgStore) TransactionsByCategory(ctx context.Context, userID, category string, limit int) ([]schema.TransactionByCategory, error) {
	var rows []schema.TransactionByCategory
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		Order("transaction_time DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions by category: %w", err)
	}
	return rows, nil
}

// SpendingByCategory returns the running totals per category
func (s *pgStore) SpendingByCategory(ctx context.Context) ([]schema.SpendingByCategory, error) {
	var rows []schema.SpendingByCategory
	err := s.db.WithContext(ctx).
		Order("total_amount_cents DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query spending by category: %w", err)
	}
	return rows, nil
}

// SpendingByUserCategory returns one user's running totals per category
func (s *pgStore) SpendingByUserCategory(ctx context.Context, userID string) ([]schema.SpendingByUserCategory, error) {
	var rows []schema.SpendingByUserCategory
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("total_amount_cents DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query spending by user and category: %w", err)
	}
	return rows, nil
}

// TopMerchants returns merchants ordered by total spend descending
func (s *pgStore) TopMerchants(ctx context.Context, limit int) ([]schema.MerchantStatistic, error) {
	var rows []schema.MerchantStatistic
	err := s.db.WithContext(ctx).
		Order("total_amount_cents DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant statistics: %w", err)
	}
	return rows, nil
}

// PaymentMethodStats returns the running totals per payment method
func (s *pgStore) PaymentMethodStats(ctx context.Context) ([]schema.PaymentMethodStat, error) {
	var rows []schema.PaymentMethodStat
	err := s.db.WithContext(ctx).
		Order("transaction_count DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query payment method stats: %w", err)
	}
	return rows, nil
}

// HourlyTransactions returns the transactions recorded under one hour bucket,
// newest first
func (s *pgStore) HourlyTransactions(ctx context.Context, bucket string, limit int) ([]schema.HourlyTransaction, error) {
	var rows []schema.HourlyTransaction
	err := s.db.WithContext(ctx).
		Where("hour_bucket = ?", bucket).
		Order("transaction_time DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly transactions: %w", err)
	}
	return rows, nil
}

// Migrate creates or updates the view tables
func (s *pgStore) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&schema.TransactionByUser{},
		&schema.TransactionByCategory{},
		&schema.HourlyTransaction{},
		&schema.SpendingByCategory{},
		&schema.SpendingByUserCategory{},
		&schema.MerchantStatistic{},
		&schema.PaymentMethodStat{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate view tables: %w", err)
	}
	return nil
}

// conflictColumns converts column names into a gorm conflict target
func conflictColumns(cols []string) []clause.Column {
	out := make([]clause.Column, len(cols))
	for i, c := range cols {
		out[i] = clause.Column{Name: c}
	}
	return out
}

// nonKeyColumns returns the row's columns that are not part of the key, sorted
// for deterministic SQL
func nonKeyColumns(row map[string]any, keyCols []string) []string {
	keys := make(map[string]bool, len(keyCols))
	for _, c := range keyCols {
		keys[c] = true
	}
	var out []string
	for col := range row {
		if !keys[col] {
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

// classifyBackendError sorts backend failures into the retryable and
// non-retryable halves of the error taxonomy
func classifyBackendError(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.As(err, &netErr):
		return &domain.TransientBackendError{Cause: err}
	default:
		return &domain.PermanentBackendError{Cause: err}
	}
}
