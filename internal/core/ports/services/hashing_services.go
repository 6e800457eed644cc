package services

import "github.com/fincore-erp/fincore/internal/core/domain"

// ChainHasherSvc defines the canonical serialization and hashing contract
// shared by the journal and fiscal document chains. Repositories consume it
// when computing hashes inside posting transactions; the chain service
// consumes it when recomputing hashes during verification.
type ChainHasherSvc interface {
	// CalculateHash returns the hex SHA-256 of previousHash + "|" + serialized.
	// A genesis record passes an empty previousHash.
	CalculateHash(serialized string, previousHash string) string

	// VerifyHash reports whether storedHash matches the recomputed value.
	VerifyHash(serialized string, previousHash string, storedHash string) bool

	// SerializeEntry builds the canonical payload of a journal entry:
	// entryNumber|date|description|lines, lines in LineIndex order as
	// accountID:debit:credit joined by ";", amounts at fixed scale.
	SerializeEntry(entry domain.JournalEntry, lines []domain.JournalLine) string

	// SerializeDocument builds the canonical payload of a fiscal document:
	// number|date|total|currency, total at fixed scale.
	SerializeDocument(document domain.Document) string

	// VerifyChain walks links in order and reports the first continuity or
	// integrity failure, if any. It never mutates anything.
	VerifyChain(links []domain.ChainLink) domain.ChainVerification
}
