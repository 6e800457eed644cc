package pgsql_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/core/services"
	"github.com/fincore-erp/fincore/internal/repositories/database/pgsql"
	"github.com/fincore-erp/fincore/internal/utils/accounting"
	"github.com/fincore-erp/fincore/pkg/database"
	migrate "github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startLedgerDB spins up a throwaway Postgres container, applies all
// migrations, and returns a connected pool. Requires a Docker daemon;
// skipped in short mode.
func startLedgerDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("fincore_test"),
		tcpostgres.WithUsername("fincore"),
		tcpostgres.WithPassword("fincore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	applyMigrations(t, dsn)

	pool, err := database.NewPgxPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func applyMigrations(t *testing.T, dsn string) {
	t.Helper()

	migrationDB, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer migrationDB.Close()

	driver, err := mpg.WithInstance(migrationDB, &mpg.Config{})
	require.NoError(t, err)

	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	migrationsPath := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "..", "migrations")

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	require.NoError(t, err)
	require.NoError(t, m.Up())
}

// seedCompanyWithAccounts inserts a company and a cash/revenue account pair,
// returning the generated IDs.
func seedCompanyWithAccounts(t *testing.T, pool *pgxpool.Pool) (companyID, cashID, revenueID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	companyID = uuid.NewString()
	_, err := pool.Exec(ctx, `
		INSERT INTO companies (company_id, name, country_code)
		VALUES ($1, 'Concurrency Test Co', 'US');
	`, companyID)
	require.NoError(t, err)

	cashID = uuid.NewString()
	revenueID = uuid.NewString()
	accountQuery := `
		INSERT INTO accounts (account_id, company_id, code, name, account_type, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, 'seed', $6, 'seed');
	`
	_, err = pool.Exec(ctx, accountQuery, cashID, companyID, "1000", "Cash", "ASSET", now)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, accountQuery, revenueID, companyID, "4000", "Revenue", "REVENUE", now)
	require.NoError(t, err)

	return companyID, cashID, revenueID
}

func draftEntry(companyID string, amount decimal.Decimal, cashID, revenueID string) (domain.JournalEntry, []domain.JournalLine) {
	now := time.Now()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: "tester", LastUpdatedAt: now, LastUpdatedBy: "tester"}

	entry := domain.JournalEntry{
		EntryID:     uuid.NewString(),
		CompanyID:   companyID,
		EntryDate:   now,
		Description: "cash sale",
		Status:      domain.Draft,
		SourceType:  domain.SourceManual,
		AuditFields: audit,
	}
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entry.EntryID, AccountID: cashID, Debit: amount, Credit: decimal.Zero, LineIndex: 0, AuditFields: audit},
		{LineID: uuid.NewString(), EntryID: entry.EntryID, AccountID: revenueID, Debit: decimal.Zero, Credit: amount, LineIndex: 1, AuditFields: audit},
	}
	return entry, lines
}

// TestConcurrentPostingKeepsChainValid posts many entries for one company
// from parallel goroutines and then walks the hash chain. Every entry must
// link to the hash of its true predecessor, so any ordering race between
// head lookup and insertion shows up as a verification failure.
func TestConcurrentPostingKeepsChainValid(t *testing.T) {
	pool := startLedgerDB(t)
	ctx := context.Background()

	hasher := services.NewChainHasher()
	repos := pgsql.NewRepositoryProvider(pool, hasher)
	companyID, cashID, revenueID := seedCompanyWithAccounts(t, pool)

	accountTypes := map[string]domain.AccountType{
		cashID:    domain.Asset,
		revenueID: domain.Revenue,
	}

	const entryCount = 16

	type draft struct {
		entryID string
		lines   []domain.JournalLine
	}
	drafts := make([]draft, 0, entryCount)
	for i := 0; i < entryCount; i++ {
		amount := decimal.NewFromInt(int64(i + 1)).Shift(1) // 10.00, 20.00, ...
		entry, lines := draftEntry(companyID, amount, cashID, revenueID)
		saved, err := repos.EntryRepo.SaveDraftEntry(ctx, entry, lines)
		require.NoError(t, err)
		drafts = append(drafts, draft{entryID: saved.EntryID, lines: lines})
	}

	var wg sync.WaitGroup
	errs := make(chan error, entryCount)
	for _, d := range drafts {
		wg.Add(1)
		go func(d draft) {
			defer wg.Done()
			balanceChanges, err := accounting.BalanceChanges(d.lines, accountTypes)
			if err != nil {
				errs <- err
				return
			}
			if _, err := repos.EntryRepo.PostEntry(ctx, companyID, d.entryID, "tester", time.Now(), balanceChanges); err != nil {
				errs <- err
			}
		}(d)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	chainSvc := services.NewChainService(repos.EntryRepo, repos.DocumentRepo, hasher)
	result, err := chainSvc.VerifyJournalChain(ctx, companyID)
	require.NoError(t, err)
	require.True(t, result.Valid, "chain invalid: failed at %d (%s): %s", result.FailedAt, result.Reason, result.Detail)
	require.Equal(t, entryCount, result.Checked)
	require.Equal(t, -1, result.FailedAt)

	// Chain positions must be gapless and every link must point at the
	// stored hash of the previous one.
	posted, err := repos.EntryRepo.ListPostedEntriesWithLines(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, posted, entryCount)
	seen := make(map[string]bool, entryCount)
	for i, entry := range posted {
		require.NotNil(t, entry.ChainSequence)
		require.Equal(t, int64(i+1), *entry.ChainSequence)
		require.False(t, seen[entry.EntryNumber], "duplicate entry number %s", entry.EntryNumber)
		seen[entry.EntryNumber] = true
		if i == 0 {
			require.Empty(t, entry.PreviousHash)
		} else {
			require.Equal(t, posted[i-1].Hash, entry.PreviousHash)
		}
	}
}
