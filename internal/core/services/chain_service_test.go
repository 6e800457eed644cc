package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ChainServiceTestSuite struct {
	suite.Suite
	mockEntryRepo    *MockEntryRepository
	mockDocumentRepo *MockDocumentRepository
	hasher           portssvc.ChainHasherSvc
	service          portssvc.ChainSvcFacade
	companyID        string
}

func (suite *ChainServiceTestSuite) SetupTest() {
	suite.mockEntryRepo = new(MockEntryRepository)
	suite.mockDocumentRepo = new(MockDocumentRepository)
	suite.hasher = services.NewChainHasher()
	suite.service = services.NewChainService(suite.mockEntryRepo, suite.mockDocumentRepo, suite.hasher)
	suite.companyID = uuid.NewString()
}

func (suite *ChainServiceTestSuite) dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	suite.Require().NoError(err)
	return d
}

// postedEntries builds a valid journal chain of n entries with real hashes.
func (suite *ChainServiceTestSuite) postedEntries(n int) []domain.JournalEntry {
	entries := make([]domain.JournalEntry, n)
	previousHash := ""
	for i := range entries {
		entry := domain.JournalEntry{
			EntryID:     uuid.NewString(),
			CompanyID:   suite.companyID,
			EntryNumber: "JE-2025-00000" + string(rune('1'+i)),
			EntryDate:   time.Date(2025, 3, 1+i, 0, 0, 0, 0, time.UTC),
			Description: "entry",
			Status:      domain.Posted,
		}
		entry.Lines = []domain.JournalLine{
			{AccountID: "acc-a", Debit: suite.dec("10.00"), Credit: decimal.Zero, LineIndex: 0},
			{AccountID: "acc-b", Debit: decimal.Zero, Credit: suite.dec("10.00"), LineIndex: 1},
		}
		entry.PreviousHash = previousHash
		entry.Hash = suite.hasher.CalculateHash(suite.hasher.SerializeEntry(entry, entry.Lines), previousHash)
		previousHash = entry.Hash
		entries[i] = entry
	}
	return entries
}

// chainedDocuments builds a valid fiscal chain of n invoices.
func (suite *ChainServiceTestSuite) chainedDocuments(n int) []domain.Document {
	docs := make([]domain.Document, n)
	previousHash := ""
	for i := range docs {
		seq := int64(i + 1)
		doc := domain.Document{
			DocumentID:     uuid.NewString(),
			CompanyID:      suite.companyID,
			DocumentType:   domain.DocInvoice,
			DocumentNumber: "INV-2025-000" + string(rune('1'+i)),
			DocumentDate:   time.Date(2025, 2, 1+i, 0, 0, 0, 0, time.UTC),
			CurrencyCode:   "EUR",
			Total:          suite.dec("121.00"),
		}
		hash := suite.hasher.CalculateHash(suite.hasher.SerializeDocument(doc), previousHash)
		prev := previousHash
		doc.FiscalHash = &hash
		doc.PreviousHash = &prev
		doc.ChainSequence = &seq
		previousHash = hash
		docs[i] = doc
	}
	return docs
}

// --- VerifyJournalChain ---

func (suite *ChainServiceTestSuite) TestVerifyJournalChain_Valid() {
	ctx := context.Background()
	entries := suite.postedEntries(3)
	suite.mockEntryRepo.On("ListPostedEntriesWithLines", ctx, suite.companyID).Return(entries, nil).Once()

	result, err := suite.service.VerifyJournalChain(ctx, suite.companyID)

	suite.Require().NoError(err)
	suite.True(result.Valid)
	suite.Equal(3, result.Checked)
	suite.Equal(-1, result.FailedAt)
}

func (suite *ChainServiceTestSuite) TestVerifyJournalChain_TamperedAmount() {
	ctx := context.Background()
	entries := suite.postedEntries(3)
	// tamper with a posted amount after hashing
	entries[1].Lines[0].Debit = suite.dec("999.00")
	suite.mockEntryRepo.On("ListPostedEntriesWithLines", ctx, suite.companyID).Return(entries, nil).Once()

	result, err := suite.service.VerifyJournalChain(ctx, suite.companyID)

	suite.Require().NoError(err)
	suite.False(result.Valid)
	suite.Equal(domain.ReasonHashMismatch, result.Reason)
	suite.Equal(1, result.FailedAt)
	suite.Equal(entries[1].EntryNumber, result.Reference)
}

func (suite *ChainServiceTestSuite) TestVerifyJournalChain_BrokenContinuity() {
	ctx := context.Background()
	entries := suite.postedEntries(3)
	entries[2].PreviousHash = "forged"
	suite.mockEntryRepo.On("ListPostedEntriesWithLines", ctx, suite.companyID).Return(entries, nil).Once()

	result, err := suite.service.VerifyJournalChain(ctx, suite.companyID)

	suite.Require().NoError(err)
	suite.False(result.Valid)
	suite.Equal(domain.ReasonBrokenLink, result.Reason)
	suite.Equal(2, result.FailedAt)
}

func (suite *ChainServiceTestSuite) TestVerifyJournalChain_EmptyChainIsValid() {
	ctx := context.Background()
	suite.mockEntryRepo.On("ListPostedEntriesWithLines", ctx, suite.companyID).Return([]domain.JournalEntry{}, nil).Once()

	result, err := suite.service.VerifyJournalChain(ctx, suite.companyID)

	suite.Require().NoError(err)
	suite.True(result.Valid)
	suite.Equal(0, result.Checked)
}

// Verification is read-only; running it twice yields identical results.
func (suite *ChainServiceTestSuite) TestVerifyJournalChain_Repeatable() {
	ctx := context.Background()
	entries := suite.postedEntries(2)
	suite.mockEntryRepo.On("ListPostedEntriesWithLines", ctx, suite.companyID).Return(entries, nil).Twice()

	first, err := suite.service.VerifyJournalChain(ctx, suite.companyID)
	suite.Require().NoError(err)
	second, err := suite.service.VerifyJournalChain(ctx, suite.companyID)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

// --- VerifyDocumentChain ---

func (suite *ChainServiceTestSuite) TestVerifyDocumentChain_Valid() {
	ctx := context.Background()
	docs := suite.chainedDocuments(3)
	suite.mockDocumentRepo.On("ListChainedDocuments", ctx, suite.companyID, domain.DocInvoice).Return(docs, nil).Once()

	result, err := suite.service.VerifyDocumentChain(ctx, suite.companyID, domain.DocInvoice)

	suite.Require().NoError(err)
	suite.True(result.Valid)
	suite.Equal(3, result.Checked)
}

func (suite *ChainServiceTestSuite) TestVerifyDocumentChain_TamperedTotal() {
	ctx := context.Background()
	docs := suite.chainedDocuments(2)
	docs[0].Total = suite.dec("999.99")
	suite.mockDocumentRepo.On("ListChainedDocuments", ctx, suite.companyID, domain.DocInvoice).Return(docs, nil).Once()

	result, err := suite.service.VerifyDocumentChain(ctx, suite.companyID, domain.DocInvoice)

	suite.Require().NoError(err)
	suite.False(result.Valid)
	suite.Equal(domain.ReasonHashMismatch, result.Reason)
	suite.Equal(0, result.FailedAt)
}

func (suite *ChainServiceTestSuite) TestVerifyDocumentChain_InvalidType() {
	ctx := context.Background()

	_, err := suite.service.VerifyDocumentChain(ctx, suite.companyID, domain.DocumentType("RECEIPT"))

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- LinkDocument ---

func (suite *ChainServiceTestSuite) TestLinkDocument_Success() {
	ctx := context.Background()
	doc := domain.Document{
		DocumentID:   uuid.NewString(),
		CompanyID:    suite.companyID,
		DocumentType: domain.DocInvoice,
	}
	seq := int64(1)
	hash := "deadbeef"
	linked := doc
	linked.ChainSequence = &seq
	linked.FiscalHash = &hash

	suite.mockDocumentRepo.On("FindDocumentByID", ctx, suite.companyID, doc.DocumentID).Return(&doc, nil).Once()
	suite.mockDocumentRepo.On("LinkDocumentToChain", ctx, suite.companyID, doc).Return(&linked, nil).Once()

	got, err := suite.service.LinkDocument(ctx, suite.companyID, doc.DocumentID)

	suite.Require().NoError(err)
	suite.Require().NotNil(got.ChainSequence)
	suite.Equal(int64(1), *got.ChainSequence)
}

func (suite *ChainServiceTestSuite) TestLinkDocument_AlreadyChained() {
	ctx := context.Background()
	hash := "already"
	doc := domain.Document{
		DocumentID: uuid.NewString(),
		CompanyID:  suite.companyID,
		FiscalHash: &hash,
	}
	suite.mockDocumentRepo.On("FindDocumentByID", ctx, suite.companyID, doc.DocumentID).Return(&doc, nil).Once()

	_, err := suite.service.LinkDocument(ctx, suite.companyID, doc.DocumentID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockDocumentRepo.AssertNotCalled(suite.T(), "LinkDocumentToChain", mock.Anything, mock.Anything, mock.Anything)
}

// --- BackfillDocumentChain ---

func (suite *ChainServiceTestSuite) TestBackfill_DryRunComputesWithoutPersisting() {
	ctx := context.Background()
	chained := suite.chainedDocuments(1)
	unchained := []domain.Document{
		{
			DocumentID:     uuid.NewString(),
			CompanyID:      suite.companyID,
			DocumentType:   domain.DocInvoice,
			DocumentNumber: "INV-2025-0099",
			DocumentDate:   time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
			CurrencyCode:   "EUR",
			Total:          suite.dec("50.00"),
		},
	}

	suite.mockDocumentRepo.On("ListChainedDocuments", ctx, suite.companyID, domain.DocInvoice).Return(chained, nil).Once()
	suite.mockDocumentRepo.On("ListUnchainedDocuments", ctx, suite.companyID, domain.DocInvoice).Return(unchained, nil).Once()

	result, err := suite.service.BackfillDocumentChain(ctx, suite.companyID, domain.DocInvoice, true)

	suite.Require().NoError(err)
	suite.True(result.DryRun)
	suite.Equal(1, result.Processed)
	suite.Require().Len(result.Previews, 1)

	preview := result.Previews[0]
	suite.Equal(int64(2), preview.ChainSequence)
	suite.Equal(*chained[0].FiscalHash, preview.PreviousHash)
	expected := suite.hasher.CalculateHash(suite.hasher.SerializeDocument(unchained[0]), *chained[0].FiscalHash)
	suite.Equal(expected, preview.Hash)
	suite.mockDocumentRepo.AssertNotCalled(suite.T(), "BackfillDocumentChain", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ChainServiceTestSuite) TestBackfill_DelegatesToRepository() {
	ctx := context.Background()
	previews := []domain.BackfillPreview{
		{DocumentID: uuid.NewString(), ChainSequence: 1, Hash: "h1"},
		{DocumentID: uuid.NewString(), ChainSequence: 2, PreviousHash: "h1", Hash: "h2"},
	}
	suite.mockDocumentRepo.On("BackfillDocumentChain", ctx, suite.companyID, domain.DocInvoice).Return(previews, nil).Once()

	result, err := suite.service.BackfillDocumentChain(ctx, suite.companyID, domain.DocInvoice, false)

	suite.Require().NoError(err)
	suite.False(result.DryRun)
	suite.Equal(2, result.Processed)
	suite.Len(result.Previews, 2)
}

func TestChainServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ChainServiceTestSuite))
}
