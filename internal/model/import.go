package model

// RawImportRecord is one untrusted record of a bulk import request.
// Expected keys: name, quantity, categoryName, expirationDate.
type RawImportRecord map[string]interface{}

// ImportErrorKind classifies why a record was rejected.
type ImportErrorKind string

const (
	MissingField          ImportErrorKind = "MissingField"
	InvalidQuantity       ImportErrorKind = "InvalidQuantity"
	InvalidExpirationDate ImportErrorKind = "InvalidExpirationDate"
	UnknownCategory       ImportErrorKind = "UnknownCategory"
)

// ImportError reports a rejected record.
type ImportError struct {
	Index  int             `json:"index"` // position in the submitted batch
	Item   RawImportRecord `json:"item"`
	Kind   ImportErrorKind `json:"kind"`
	Reason string          `json:"reason"`
}

// ImportOutcome is the aggregated result of one bulk import call.
type ImportOutcome struct {
	SuccessCount  int           `json:"successCount"`
	FailedCount   int           `json:"failedCount"`
	Errors        []ImportError `json:"errors"`
	ImportedItems []PantryItem  `json:"importedItems"`
}
