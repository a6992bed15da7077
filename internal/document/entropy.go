package document

import (
	"bytes"

	"DocLedger/internal/identifier"
	"DocLedger/internal/validation"
)

// VerifyEntropy checks that a submitted document carries the same $entropy
// as its previously stored version. A nil fetched document has no previous
// version and always passes. The structure validator does not fetch documents,
// so callers holding a document store run this check themselves.
func VerifyEntropy(submitted RawTransition, fetched map[string]any) *validation.Result {
	if fetched == nil {
		return validation.NewResult()
	}

	want, wantErr := identifier.Bytes(fetched["$entropy"])
	got, gotErr := identifier.Bytes(submitted["$entropy"])

	if wantErr != nil || gotErr != nil || !bytes.Equal(got, want) {
		return validation.NewResult(&validation.DocumentEntropyMismatchError{
			Document:        submitted,
			FetchedDocument: fetched,
		})
	}

	return validation.NewResult()
}
