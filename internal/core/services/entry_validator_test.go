package services_test

import (
	"testing"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(accountID, debit, credit string) domain.JournalLine {
	return domain.JournalLine{
		AccountID: accountID,
		Debit:     decimal.RequireFromString(debit),
		Credit:    decimal.RequireFromString(credit),
	}
}

func TestValidateEntryLines(t *testing.T) {
	tests := []struct {
		name    string
		lines   []domain.JournalLine
		wantErr error
	}{
		{
			name: "balanced two lines",
			lines: []domain.JournalLine{
				line("a", "100.00", "0"),
				line("b", "0", "100.00"),
			},
		},
		{
			name: "balanced multi-leg",
			lines: []domain.JournalLine{
				line("a", "121.00", "0"),
				line("b", "0", "100.00"),
				line("c", "0", "21.00"),
			},
		},
		{
			name:    "single line",
			lines:   []domain.JournalLine{line("a", "100.00", "0")},
			wantErr: services.ErrEntryMinLines,
		},
		{
			name:    "no lines",
			lines:   nil,
			wantErr: services.ErrEntryMinLines,
		},
		{
			name: "same account on both sides",
			lines: []domain.JournalLine{
				line("a", "100.00", "0"),
				line("a", "0", "100.00"),
			},
		},
		{
			name: "unbalanced",
			lines: []domain.JournalLine{
				line("a", "100.00", "0"),
				line("b", "0", "99.99"),
			},
			wantErr: services.ErrEntryUnbalanced,
		},
		{
			name: "line with both debit and credit",
			lines: []domain.JournalLine{
				line("a", "50.00", "50.00"),
				line("b", "0", "0"),
			},
			wantErr: services.ErrLineBothSides,
		},
		{
			name: "line with neither side",
			lines: []domain.JournalLine{
				line("a", "100.00", "0"),
				line("b", "0", "0"),
			},
			wantErr: services.ErrLineNoAmount,
		},
		{
			name: "negative amount",
			lines: []domain.JournalLine{
				line("a", "-100.00", "0"),
				line("b", "0", "-100.00"),
			},
			wantErr: services.ErrLineNoAmount,
		},
		{
			name: "sub-cent precision",
			lines: []domain.JournalLine{
				line("a", "100.005", "0"),
				line("b", "0", "100.005"),
			},
			wantErr: services.ErrLineScale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := services.ValidateEntryLines(tt.lines)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
