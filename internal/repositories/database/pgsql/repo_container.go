package pgsql

import (
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the pgsql repositories. The hasher is shared
// with the service layer so chain hashes are computed identically on both
// sides.
func NewRepositoryProvider(dbPool *pgxpool.Pool, hasher portssvc.ChainHasherSvc) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	entryRepo := newPgxEntryRepository(dbPool, accountRepo, hasher)
	documentRepo := newPgxDocumentRepository(dbPool, hasher)
	paymentRepo := newPgxPaymentRepository(dbPool, documentRepo, entryRepo)
	settingsRepo := newPgxSettingsRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:  accountRepo,
		EntryRepo:    entryRepo,
		DocumentRepo: documentRepo,
		PaymentRepo:  paymentRepo,
		SettingsRepo: settingsRepo,
	}
}
