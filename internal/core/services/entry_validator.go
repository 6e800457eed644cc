package services

import (
	"errors"
	"fmt"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrEntryMinLines   = errors.New("entry must have at least two lines")
	ErrEntryUnbalanced = errors.New("entry debits and credits do not balance")
	ErrLineBothSides   = errors.New("line cannot carry both a debit and a credit")
	ErrLineNoAmount    = errors.New("line must carry a positive debit or credit")
	ErrLineScale       = errors.New("line amount exceeds two decimal places")
)

// ValidateEntryLines enforces the double-entry rules on a line set:
// at least two lines, exactly one positive side per line at monetary
// scale, and equal debit and credit totals. The same account may appear
// on both sides; self-transfers are legitimate entries.
func ValidateEntryLines(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return ErrEntryMinLines
	}

	debitsSum := decimal.Zero
	creditsSum := decimal.Zero

	for _, line := range lines {
		debitSet := line.Debit.IsPositive()
		creditSet := line.Credit.IsPositive()

		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: account %s", ErrLineNoAmount, line.AccountID)
		}
		if debitSet && creditSet {
			return fmt.Errorf("%w: account %s", ErrLineBothSides, line.AccountID)
		}
		if !debitSet && !creditSet {
			return fmt.Errorf("%w: account %s", ErrLineNoAmount, line.AccountID)
		}
		if !line.Debit.Equal(line.Debit.Round(domain.MoneyScale)) || !line.Credit.Equal(line.Credit.Round(domain.MoneyScale)) {
			return fmt.Errorf("%w: account %s", ErrLineScale, line.AccountID)
		}

		debitsSum = debitsSum.Add(line.Debit)
		creditsSum = creditsSum.Add(line.Credit)
	}

	if !debitsSum.Equal(creditsSum) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s",
			ErrEntryUnbalanced, debitsSum.StringFixed(domain.MoneyScale), creditsSum.StringFixed(domain.MoneyScale))
	}

	return nil
}
