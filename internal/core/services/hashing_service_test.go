package services_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/fincore-erp/fincore/internal/core/domain"
	"github.com/fincore-erp/fincore/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestCalculateHash_Genesis(t *testing.T) {
	hasher := services.NewChainHasher()

	serialized := "JE-2025-000001|2025-03-01|Opening entry|acc-1:100.00:0.00;acc-2:0.00:100.00"
	got := hasher.CalculateHash(serialized, "")

	sum := sha256.Sum256([]byte("|" + serialized))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
	assert.Len(t, got, 64)
}

func TestCalculateHash_ChainsOnPreviousHash(t *testing.T) {
	hasher := services.NewChainHasher()

	first := hasher.CalculateHash("payload-one", "")
	second := hasher.CalculateHash("payload-two", first)

	sum := sha256.Sum256([]byte(first + "|payload-two"))
	assert.Equal(t, hex.EncodeToString(sum[:]), second)
	assert.NotEqual(t, first, second)
}

func TestVerifyHash(t *testing.T) {
	hasher := services.NewChainHasher()

	hash := hasher.CalculateHash("payload", "prev")
	assert.True(t, hasher.VerifyHash("payload", "prev", hash))
	assert.False(t, hasher.VerifyHash("tampered", "prev", hash))
	assert.False(t, hasher.VerifyHash("payload", "other", hash))
}

func TestSerializeEntry_Format(t *testing.T) {
	hasher := services.NewChainHasher()

	entry := domain.JournalEntry{
		EntryNumber: "JE-2025-000042",
		EntryDate:   time.Date(2025, 7, 9, 15, 30, 0, 0, time.UTC),
		Description: "Invoice INV-100",
	}
	lines := []domain.JournalLine{
		{AccountID: "acc-ar", Debit: mustDecimal(t, "121"), Credit: decimal.Zero, LineIndex: 0},
		{AccountID: "acc-rev", Debit: decimal.Zero, Credit: mustDecimal(t, "100"), LineIndex: 1},
		{AccountID: "acc-tax", Debit: decimal.Zero, Credit: mustDecimal(t, "21"), LineIndex: 2},
	}

	got := hasher.SerializeEntry(entry, lines)
	assert.Equal(t, "JE-2025-000042|2025-07-09|Invoice INV-100|acc-ar:121.00:0.00;acc-rev:0.00:100.00;acc-tax:0.00:21.00", got)
}

func TestSerializeEntry_OrdersByLineIndex(t *testing.T) {
	hasher := services.NewChainHasher()

	entry := domain.JournalEntry{
		EntryNumber: "JE-2025-000001",
		EntryDate:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Description: "d",
	}
	ordered := []domain.JournalLine{
		{AccountID: "a", Debit: mustDecimal(t, "10"), LineIndex: 0},
		{AccountID: "b", Credit: mustDecimal(t, "10"), LineIndex: 1},
	}
	shuffled := []domain.JournalLine{ordered[1], ordered[0]}

	assert.Equal(t, hasher.SerializeEntry(entry, ordered), hasher.SerializeEntry(entry, shuffled))
}

func TestSerializeDocument_Format(t *testing.T) {
	hasher := services.NewChainHasher()

	doc := domain.Document{
		DocumentNumber: "INV-2025-0007",
		DocumentDate:   time.Date(2025, 2, 28, 23, 59, 0, 0, time.UTC),
		Total:          mustDecimal(t, "1210.5"),
		CurrencyCode:   "EUR",
	}

	assert.Equal(t, "INV-2025-0007|2025-02-28|1210.50|EUR", hasher.SerializeDocument(doc))
}

func buildChain(payloads ...string) []domain.ChainLink {
	hasher := services.NewChainHasher()
	links := make([]domain.ChainLink, len(payloads))
	previous := ""
	for i, payload := range payloads {
		hash := hasher.CalculateHash(payload, previous)
		links[i] = domain.ChainLink{
			Position:     i,
			Reference:    payload,
			Hash:         hash,
			PreviousHash: previous,
			Serialized:   payload,
		}
		previous = hash
	}
	return links
}

func TestVerifyChain_Valid(t *testing.T) {
	hasher := services.NewChainHasher()
	links := buildChain("one", "two", "three")

	result := hasher.VerifyChain(links)

	assert.True(t, result.Valid)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, -1, result.FailedAt)
}

func TestVerifyChain_Empty(t *testing.T) {
	hasher := services.NewChainHasher()

	result := hasher.VerifyChain(nil)

	assert.True(t, result.Valid)
	assert.Equal(t, 0, result.Checked)
	assert.Equal(t, -1, result.FailedAt)
}

func TestVerifyChain_BrokenLink(t *testing.T) {
	hasher := services.NewChainHasher()
	links := buildChain("one", "two", "three")
	links[2].PreviousHash = "0000"

	result := hasher.VerifyChain(links)

	assert.False(t, result.Valid)
	assert.Equal(t, domain.ReasonBrokenLink, result.Reason)
	assert.Equal(t, 2, result.FailedAt)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, "three", result.Reference)
}

func TestVerifyChain_HashMismatch(t *testing.T) {
	hasher := services.NewChainHasher()
	links := buildChain("one", "two", "three")
	links[1].Serialized = "two-tampered"

	result := hasher.VerifyChain(links)

	assert.False(t, result.Valid)
	assert.Equal(t, domain.ReasonHashMismatch, result.Reason)
	assert.Equal(t, 1, result.FailedAt)
	assert.Equal(t, "two", result.Reference)
}

// Continuity is checked before integrity at each position, and the walk
// stops at the first failure.
func TestVerifyChain_FirstFailureWins(t *testing.T) {
	hasher := services.NewChainHasher()
	links := buildChain("one", "two", "three")
	links[1].PreviousHash = "0000"
	links[2].Serialized = "three-tampered"

	result := hasher.VerifyChain(links)

	assert.False(t, result.Valid)
	assert.Equal(t, 1, result.FailedAt)
	assert.Equal(t, domain.ReasonBrokenLink, result.Reason)
}

func TestVerifyChain_Repeatable(t *testing.T) {
	hasher := services.NewChainHasher()
	links := buildChain("one", "two")

	first := hasher.VerifyChain(links)
	second := hasher.VerifyChain(links)

	assert.Equal(t, first, second)
}
