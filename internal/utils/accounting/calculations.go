package accounting

import (
	"fmt"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedLineAmount converts a journal line's debit/credit pair into the
// signed balance effect for its account, based on the account's normal side.
// DEBIT to ASSET/EXPENSE increases the balance; CREDIT decreases it.
// For LIABILITY/EQUITY/REVENUE the signs are mirrored.
// This is used in both services and repositories so balance maintenance
// stays consistent with validation.
func SignedLineAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	net := line.Debit.Sub(line.Credit)
	switch accountType {
	case domain.Asset, domain.Expense:
		return net, nil
	case domain.Liability, domain.Equity, domain.Revenue:
		return net.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account ID %s", accountType, line.AccountID)
	}
}

// BalanceChanges aggregates the signed effect of a line set per account.
func BalanceChanges(lines []domain.JournalLine, accountTypes map[string]domain.AccountType) (map[string]decimal.Decimal, error) {
	changes := make(map[string]decimal.Decimal, len(accountTypes))
	for _, line := range lines {
		accountType, ok := accountTypes[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account type not found for account ID %s", line.AccountID)
		}
		signed, err := SignedLineAmount(line, accountType)
		if err != nil {
			return nil, err
		}
		changes[line.AccountID] = changes[line.AccountID].Add(signed)
	}
	return changes, nil
}
