package dto

// VerifyChainParams selects the chain to verify. DocumentType is only
// meaningful for the fiscal document chain.
type VerifyChainParams struct {
	DocumentType string `form:"documentType"`
}

// BackfillChainRequest controls a fiscal chain backfill run.
type BackfillChainRequest struct {
	DocumentType string `json:"documentType" binding:"required,documenttype"`
	DryRun       bool   `json:"dryRun"`
}

// LinkDocumentRequest appends one posted document to its fiscal chain.
type LinkDocumentRequest struct {
	DocumentID string `json:"documentID" binding:"required"`
}
