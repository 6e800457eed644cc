package accounting_test

import (
	"testing"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(accountID, debit, credit string) domain.JournalLine {
	return domain.JournalLine{
		AccountID: accountID,
		Debit:     decimal.RequireFromString(debit),
		Credit:    decimal.RequireFromString(credit),
	}
}

func TestSignedLineAmount(t *testing.T) {
	tests := []struct {
		name        string
		line        domain.JournalLine
		accountType domain.AccountType
		want        string
		wantErr     bool
	}{
		{name: "debit to asset increases", line: line("a", "100.00", "0"), accountType: domain.Asset, want: "100.00"},
		{name: "credit to asset decreases", line: line("a", "0", "100.00"), accountType: domain.Asset, want: "-100.00"},
		{name: "debit to expense increases", line: line("a", "40.00", "0"), accountType: domain.Expense, want: "40.00"},
		{name: "credit to liability increases", line: line("a", "0", "21.00"), accountType: domain.Liability, want: "21.00"},
		{name: "debit to liability decreases", line: line("a", "21.00", "0"), accountType: domain.Liability, want: "-21.00"},
		{name: "credit to revenue increases", line: line("a", "0", "100.00"), accountType: domain.Revenue, want: "100.00"},
		{name: "credit to equity increases", line: line("a", "0", "500.00"), accountType: domain.Equity, want: "500.00"},
		{name: "unknown account type", line: line("a", "1.00", "0"), accountType: domain.AccountType("BOGUS"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounting.SignedLineAmount(tt.line, tt.accountType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestBalanceChanges(t *testing.T) {
	accountTypes := map[string]domain.AccountType{
		"ar":  domain.Asset,
		"rev": domain.Revenue,
		"tax": domain.Liability,
	}

	lines := []domain.JournalLine{
		line("ar", "121.00", "0"),
		line("rev", "0", "100.00"),
		line("tax", "0", "21.00"),
	}

	changes, err := accounting.BalanceChanges(lines, accountTypes)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	assert.True(t, changes["ar"].Equal(decimal.RequireFromString("121.00")))
	assert.True(t, changes["rev"].Equal(decimal.RequireFromString("100.00")))
	assert.True(t, changes["tax"].Equal(decimal.RequireFromString("21.00")))
}

func TestBalanceChangesAggregatesPerAccount(t *testing.T) {
	accountTypes := map[string]domain.AccountType{
		"cash": domain.Asset,
		"rev":  domain.Revenue,
	}

	lines := []domain.JournalLine{
		line("cash", "60.00", "0"),
		line("cash", "40.00", "0"),
		line("rev", "0", "100.00"),
	}

	changes, err := accounting.BalanceChanges(lines, accountTypes)
	require.NoError(t, err)
	assert.True(t, changes["cash"].Equal(decimal.RequireFromString("100.00")))
}

func TestBalanceChangesMissingAccountType(t *testing.T) {
	lines := []domain.JournalLine{line("ghost", "10.00", "0")}

	_, err := accounting.BalanceChanges(lines, map[string]domain.AccountType{})
	assert.Error(t, err)
}
