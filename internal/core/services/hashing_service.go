package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/fincore-erp/fincore/internal/core/domain"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
)

// hashDateFormat is the date representation inside canonical payloads.
// Only the calendar date participates in hashing, never the time of day.
const hashDateFormat = "2006-01-02"

// chainHasher implements the canonical serialization and hashing rules
// shared by the journal and fiscal document chains.
type chainHasher struct{}

// NewChainHasher creates the hashing service.
func NewChainHasher() portssvc.ChainHasherSvc {
	return &chainHasher{}
}

var _ portssvc.ChainHasherSvc = (*chainHasher)(nil)

// CalculateHash returns the hex SHA-256 of previousHash + "|" + serialized.
// The genesis record of a chain uses an empty previousHash, so its input
// starts with the separator.
func (h *chainHasher) CalculateHash(serialized string, previousHash string) string {
	sum := sha256.Sum256([]byte(previousHash + "|" + serialized))
	return hex.EncodeToString(sum[:])
}

// VerifyHash reports whether storedHash matches the recomputed value.
func (h *chainHasher) VerifyHash(serialized string, previousHash string, storedHash string) bool {
	return h.CalculateHash(serialized, previousHash) == storedHash
}

// SerializeEntry builds the canonical payload of a journal entry.
// Lines are ordered by LineIndex regardless of input order, so the same
// entry always serializes identically.
func (h *chainHasher) SerializeEntry(entry domain.JournalEntry, lines []domain.JournalLine) string {
	ordered := make([]domain.JournalLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].LineIndex < ordered[j].LineIndex })

	lineParts := make([]string, len(ordered))
	for i, line := range ordered {
		lineParts[i] = fmt.Sprintf("%s:%s:%s",
			line.AccountID,
			line.Debit.StringFixed(domain.MoneyScale),
			line.Credit.StringFixed(domain.MoneyScale),
		)
	}

	return fmt.Sprintf("%s|%s|%s|%s",
		entry.EntryNumber,
		entry.EntryDate.Format(hashDateFormat),
		entry.Description,
		strings.Join(lineParts, ";"),
	)
}

// SerializeDocument builds the canonical payload of a fiscal document.
func (h *chainHasher) SerializeDocument(document domain.Document) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		document.DocumentNumber,
		document.DocumentDate.Format(hashDateFormat),
		document.Total.StringFixed(domain.MoneyScale),
		document.CurrencyCode,
	)
}

// VerifyChain walks links in order, checking continuity before integrity
// at each position, and stops at the first failure.
func (h *chainHasher) VerifyChain(links []domain.ChainLink) domain.ChainVerification {
	previousHash := ""
	for i, link := range links {
		if link.PreviousHash != previousHash {
			return domain.ChainVerification{
				Valid:     false,
				Checked:   i + 1,
				FailedAt:  i,
				Reference: link.Reference,
				Reason:    domain.ReasonBrokenLink,
				Detail:    fmt.Sprintf("stored previous hash %q does not match prior record hash %q", link.PreviousHash, previousHash),
			}
		}
		if !h.VerifyHash(link.Serialized, link.PreviousHash, link.Hash) {
			return domain.ChainVerification{
				Valid:     false,
				Checked:   i + 1,
				FailedAt:  i,
				Reference: link.Reference,
				Reason:    domain.ReasonHashMismatch,
				Detail:    fmt.Sprintf("stored hash %q does not match recomputed payload hash", link.Hash),
			}
		}
		previousHash = link.Hash
	}
	return domain.ChainVerification{Valid: true, Checked: len(links), FailedAt: -1}
}
