package domain

// ChainType scopes a hash chain. The journal chain is per company; the
// fiscal document chain is per company and document type. The two chains
// never cross-reference each other.
type ChainType string

const (
	ChainJournal  ChainType = "JOURNAL"
	ChainDocument ChainType = "DOCUMENT"
)

// ChainFailureReason distinguishes the two verification failure modes.
type ChainFailureReason string

const (
	// ReasonBrokenLink: a record's stored previous_hash does not match the
	// prior record's stored hash (continuity failure).
	ReasonBrokenLink ChainFailureReason = "BROKEN_LINK"
	// ReasonHashMismatch: a record's stored hash does not match the value
	// recomputed from its payload (integrity failure).
	ReasonHashMismatch ChainFailureReason = "HASH_MISMATCH"
)

// ChainLink is one record of a hash chain in verification order.
type ChainLink struct {
	Position     int    `json:"position"`  // 0-based position in chain order
	Reference    string `json:"reference"` // entry number or document number, for reporting
	Hash         string `json:"hash"`
	PreviousHash string `json:"previousHash"`
	Serialized   string `json:"-"` // canonical payload the hash was computed over
}

// ChainVerification is the outcome of a full chain walk. Verification
// never mutates data; re-running it on an unmodified chain yields an
// identical result.
type ChainVerification struct {
	Valid     bool               `json:"valid"`
	Checked   int                `json:"checked"`
	FailedAt  int                `json:"failedAt"` // -1 when valid
	Reference string             `json:"reference,omitempty"`
	Reason    ChainFailureReason `json:"reason,omitempty"`
	Detail    string             `json:"detail,omitempty"`
}
