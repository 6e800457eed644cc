package services

import (
	portsrepo "github.com/fincore-erp/fincore/internal/core/ports/repositories"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies. The hasher is the same instance the
// repositories compute chain hashes with.
func NewServiceContainer(repos portsrepo.RepositoryProvider, hasher portssvc.ChainHasherSvc) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Hasher = hasher
	container.Tolerance = NewToleranceService(repos.SettingsRepo)
	container.Ledger = NewLedgerService(repos.EntryRepo, repos.AccountRepo, repos.DocumentRepo)
	container.Allocation = NewAllocationService(repos.PaymentRepo, repos.DocumentRepo, repos.AccountRepo, container.Tolerance)
	container.Chain = NewChainService(repos.EntryRepo, repos.DocumentRepo, hasher)

	return container
}
