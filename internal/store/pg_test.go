package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/paystream/payment-analytics/internal/adapter"
	"github.com/paystream/payment-analytics/internal/domain"
	"github.com/paystream/payment-analytics/internal/store/schema"
	"github.com/paystream/payment-analytics/internal/views"
)

var (
	testDB      *gorm.DB
	testStore   ViewStore
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	// Create the view tables
	testStore = NewPGStore(testDB, views.Registry(), adapter.NewClock())
	if err := testStore.Migrate(ctx); err != nil {
		fmt.Printf("Failed to migrate view tables: %v\n", err)
		if pgContainer != nil {
			if err := pgContainer.Terminate(ctx); err != nil {
				fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
			}
		}
		os.Exit(1)
	}

	code := m.Run()

	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}

	os.Exit(code)
}

// truncateViews clears all view tables between tests
func truncateViews(t *testing.T) {
	t.Helper()
	for _, desc := range views.Registry() {
		require.NoError(t, testDB.Exec("TRUNCATE TABLE "+desc.Name).Error)
	}
}

func insertKey(userID string, ts time.Time, id uuid.UUID) map[string]any {
	return map[string]any{
		"user_id":          userID,
		"transaction_time": ts,
		"transaction_id":   id.String(),
	}
}

func TestUpsertLastWriteWins(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()

	id := uuid.New()
	ts := time.Date(2019, 1, 1, 0, 0, 18, 0, time.UTC)
	key := insertKey("User_1", ts, id)

	require.NoError(t, testStore.Upsert(ctx, views.ViewTransactionsByUser, key, map[string]any{
		"amount_cents":   int64(497),
		"category":       "misc_net",
		"merchant":       "Kirlin and Sons",
		"payment_method": "debit_card",
		"is_recurring":   false,
	}, 0))

	// Re-delivery of the same logical write overwrites, never duplicates
	require.NoError(t, testStore.Upsert(ctx, views.ViewTransactionsByUser, key, map[string]any{
		"amount_cents":   int64(1099),
		"category":       "misc_net",
		"merchant":       "Kirlin and Sons",
		"payment_method": "credit_card",
		"is_recurring":   true,
	}, 0))

	rows, err := testStore.RecentTransactionsByUser(ctx, "User_1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1099), rows[0].AmountCents)
	assert.Equal(t, "credit_card", rows[0].PaymentMethod)
	assert.True(t, rows[0].IsRecurring)
}

func TestUpsertUnknownView(t *testing.T) {
	err := testStore.Upsert(context.Background(), "no_such_view", map[string]any{"k": "v"}, nil, 0)
	require.Error(t, err)
	assert.True(t, domain.IsPermanent(err))
	assert.ErrorIs(t, err, domain.ErrViewNotFound)
}

// fixedClock pins store timestamps for expiry assertions
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time                       { return c.now }
func (c fixedClock) Since(t time.Time) time.Duration      { return c.now.Sub(t) }
func (c fixedClock) Sleep(time.Duration)                  {}
func (c fixedClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }

func TestUpsertStampsExpiryFromClock(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()

	writeTime := time.Date(2019, 1, 1, 0, 0, 18, 0, time.UTC)
	clockedStore := NewPGStore(testDB, views.Registry(), fixedClock{now: writeTime})

	key := map[string]any{
		"hour_bucket":      "2019-01-01-00",
		"transaction_time": writeTime,
		"transaction_id":   uuid.New().String(),
	}
	require.NoError(t, clockedStore.Upsert(ctx, views.ViewHourlyTransactions, key, map[string]any{
		"user_id":      "User_1",
		"amount_cents": int64(497),
		"category":     "misc_net",
	}, views.HourlyTTL))

	rows, err := clockedStore.HourlyTransactions(ctx, "2019-01-01-00", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Deadline comes from the injected clock, not the wall clock
	assert.WithinDuration(t, writeTime.Add(views.HourlyTTL), rows[0].ExpiresAt, time.Second)
}

func TestIncrementAccumulates(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()

	key := map[string]any{"category": "misc_net"}

	// First increment creates the row
	require.NoError(t, testStore.Increment(ctx, views.ViewSpendingByCategory, key, map[string]int64{
		"total_amount_cents": 497,
		"transaction_count":  1,
	}))
	// Second accumulates inside the statement
	require.NoError(t, testStore.Increment(ctx, views.ViewSpendingByCategory, key, map[string]int64{
		"total_amount_cents": 10723,
		"transaction_count":  1,
	}))

	rows, err := testStore.SpendingByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "misc_net", rows[0].Category)
	assert.Equal(t, int64(11220), rows[0].TotalAmountCents)
	assert.Equal(t, int64(2), rows[0].TransactionCount)
}

func TestIncrementCompositeKey(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()

	for _, userID := range []string{"User_1", "User_2"} {
		require.NoError(t, testStore.Increment(ctx, views.ViewSpendingByUserCategory,
			map[string]any{"user_id": userID, "category": "grocery_pos"},
			map[string]int64{"total_amount_cents": 100, "transaction_count": 1}))
	}
	require.NoError(t, testStore.Increment(ctx, views.ViewSpendingByUserCategory,
		map[string]any{"user_id": "User_1", "category": "grocery_pos"},
		map[string]int64{"total_amount_cents": 50, "transaction_count": 1}))

	rows, err := testStore.SpendingByUserCategory(ctx, "User_1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(150), rows[0].TotalAmountCents)
	assert.Equal(t, int64(2), rows[0].TransactionCount)

	rows, err = testStore.SpendingByUserCategory(ctx, "User_2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(100), rows[0].TotalAmountCents)
}

func TestIncrementUnknownView(t *testing.T) {
	err := testStore.Increment(context.Background(), "no_such_view",
		map[string]any{"k": "v"}, map[string]int64{"total_amount_cents": 1})
	require.Error(t, err)
	assert.True(t, domain.IsPermanent(err))
}

func TestDeleteExpired(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []schema.HourlyTransaction{
		{
			HourBucket:      "2019-01-01-00",
			TransactionTime: now.Add(-8 * 24 * time.Hour),
			TransactionID:   uuid.New().String(),
			UserID:          "User_1",
			AmountCents:     100,
			Category:        "misc_net",
			ExpiresAt:       now.Add(-time.Hour),
		},
		{
			HourBucket:      "2019-01-02-00",
			TransactionTime: now.Add(-time.Hour),
			TransactionID:   uuid.New().String(),
			UserID:          "User_1",
			AmountCents:     200,
			Category:        "misc_net",
			ExpiresAt:       now.Add(6 * 24 * time.Hour),
		},
	}
	require.NoError(t, testDB.Create(&seed).Error)

	removed, err := testStore.DeleteExpired(ctx, views.ViewHourlyTransactions, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// Only the overdue row is gone
	var remaining []schema.HourlyTransaction
	require.NoError(t, testDB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "2019-01-02-00", remaining[0].HourBucket)

	// Second sweep finds nothing
	removed, err = testStore.DeleteExpired(ctx, views.ViewHourlyTransactions, now)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDeleteExpiredRejectsNonTTLView(t *testing.T) {
	_, err := testStore.DeleteExpired(context.Background(), views.ViewTransactionsByUser, time.Now())
	require.Error(t, err)
	assert.True(t, domain.IsPermanent(err))
}

func TestRecentTransactionsByUserOrderAndLimit(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()
	base := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range 5 {
		key := insertKey("User_1", base.Add(time.Duration(i)*time.Minute), uuid.New())
		require.NoError(t, testStore.Upsert(ctx, views.ViewTransactionsByUser, key, map[string]any{
			"amount_cents": int64(100 * (i + 1)),
			"category":     "misc_net",
			"merchant":     "Shop",
		}, 0))
	}
	// Another user's rows never leak into the listing
	key := insertKey("User_2", base, uuid.New())
	require.NoError(t, testStore.Upsert(ctx, views.ViewTransactionsByUser, key, map[string]any{
		"amount_cents": int64(999),
		"category":     "misc_net",
		"merchant":     "Shop",
	}, 0))

	rows, err := testStore.RecentTransactionsByUser(ctx, "User_1", 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// Newest first
	assert.Equal(t, int64(500), rows[0].AmountCents)
	assert.Equal(t, int64(400), rows[1].AmountCents)
	assert.Equal(t, int64(300), rows[2].AmountCents)
}

func TestTransactionsByCategory(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()
	base := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, category := range []string{"misc_net", "grocery_pos", "misc_net"} {
		require.NoError(t, testStore.Upsert(ctx, views.ViewTransactionsByCategory, map[string]any{
			"user_id":          "User_1",
			"category":         category,
			"transaction_time": base.Add(time.Duration(i) * time.Minute),
			"transaction_id":   uuid.New().String(),
		}, map[string]any{
			"amount_cents": int64(100 * (i + 1)),
			"merchant":     "Shop",
		}, 0))
	}

	rows, err := testStore.TransactionsByCategory(ctx, "User_1", "misc_net", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(300), rows[0].AmountCents)
	assert.Equal(t, int64(100), rows[1].AmountCents)
}

func TestTopMerchantsOrderAndLimit(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()

	totals := map[string]int64{
		"Alpha":   300,
		"Bravo":   900,
		"Charlie": 600,
	}
	for merchant, total := range totals {
		require.NoError(t, testStore.Increment(ctx, views.ViewMerchantStatistics,
			map[string]any{"merchant": merchant},
			map[string]int64{"total_amount_cents": total, "transaction_count": 1}))
	}

	rows, err := testStore.TopMerchants(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bravo", rows[0].Merchant)
	assert.Equal(t, "Charlie", rows[1].Merchant)
}

func TestPaymentMethodStats(t *testing.T) {
	truncateViews(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, testStore.Increment(ctx, views.ViewPaymentMethodStats,
			map[string]any{"payment_method": "debit_card"},
			map[string]int64{"total_amount_cents": 100, "transaction_count": 1}))
	}
	require.NoError(t, testStore.Increment(ctx, views.ViewPaymentMethodStats,
		map[string]any{"payment_method": "credit_card"},
		map[string]int64{"total_amount_cents": 500, "transaction_count": 1}))

	rows, err := testStore.PaymentMethodStats(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Ordered by usage count
	assert.Equal(t, "debit_card", rows[0].PaymentMethod)
	assert.Equal(t, int64(3), rows[0].TransactionCount)
}
