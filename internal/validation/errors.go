package validation

import (
	"fmt"

	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
)

// ErrorKind identifies the kind of a consensus error.
type ErrorKind int

const (
	KindJSONSchema ErrorKind = iota + 1
	KindInvalidIdentifier
	KindMissingDataContractID
	KindDataContractNotPresent
	KindDataContractFetch
	KindMissingDocumentType
	KindInvalidDocumentType
	KindMissingDocumentTransitionAction
	KindInvalidDocumentTransitionAction
	KindInvalidDocumentTransitionID
	KindDuplicateDocumentTransitions
	KindInconsistentCompoundIndexData
	KindDocumentEntropyMismatch
	KindBalanceIsNotEnough
	KindIdentityNotFound
	KindMissingPublicKey
	KindPublicKeyDisabled
	KindInvalidIdentityPublicKeyType
	KindInvalidStateTransitionSignature
	KindInvalidStateTransitionType
)

var kindNames = map[ErrorKind]string{
	KindJSONSchema:                      "JsonSchemaError",
	KindInvalidIdentifier:               "InvalidIdentifierError",
	KindMissingDataContractID:           "MissingDataContractIdError",
	KindDataContractNotPresent:          "DataContractNotPresentError",
	KindDataContractFetch:               "DataContractFetchError",
	KindMissingDocumentType:             "MissingDocumentTypeError",
	KindInvalidDocumentType:             "InvalidDocumentTypeError",
	KindMissingDocumentTransitionAction: "MissingDocumentTransitionActionError",
	KindInvalidDocumentTransitionAction: "InvalidDocumentTransitionActionError",
	KindInvalidDocumentTransitionID:     "InvalidDocumentTransitionIdError",
	KindDuplicateDocumentTransitions:    "DuplicateDocumentTransitionsError",
	KindInconsistentCompoundIndexData:   "InconsistentCompoundIndexDataError",
	KindDocumentEntropyMismatch:         "DocumentEntropyMismatchError",
	KindBalanceIsNotEnough:              "BalanceIsNotEnoughError",
	KindIdentityNotFound:                "IdentityNotFoundError",
	KindMissingPublicKey:                "MissingPublicKeyError",
	KindPublicKeyDisabled:               "PublicKeyDisabledError",
	KindInvalidIdentityPublicKeyType:    "InvalidIdentityPublicKeyTypeError",
	KindInvalidStateTransitionSignature: "InvalidStateTransitionSignatureError",
	KindInvalidStateTransitionType:      "InvalidStateTransitionTypeError",
}

// String returns the error kind name.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ConsensusError is a validation failure that every node must agree on.
type ConsensusError interface {
	error
	Kind() ErrorKind
}

// JSONSchemaError reports that an instance does not conform to a schema,
// or that the schema itself could not be resolved.
type JSONSchemaError struct {
	Schema  string // Schema is the $ref or $id that was validated against
	Message string // Message is the engine-native failure description
}

func (e *JSONSchemaError) Error() string {
	if e.Schema == "" {
		return "json schema: " + e.Message
	}
	return fmt.Sprintf("json schema %s: %s", e.Schema, e.Message)
}

func (e *JSONSchemaError) Kind() ErrorKind { return KindJSONSchema }

// InvalidIdentifierError reports a malformed identifier field.
type InvalidIdentifierError struct {
	Name  string // Name is the field holding the identifier
	Cause error  // Cause is the parse failure
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Name, e.Cause)
}

func (e *InvalidIdentifierError) Kind() ErrorKind { return KindInvalidIdentifier }

func (e *InvalidIdentifierError) Unwrap() error { return e.Cause }

// MissingDataContractIDError reports a transition without $dataContractId.
type MissingDataContractIDError struct {
	Transition map[string]any
}

func (e *MissingDataContractIDError) Error() string {
	return "$dataContractId is not present"
}

func (e *MissingDataContractIDError) Kind() ErrorKind { return KindMissingDataContractID }

// DataContractNotPresentError reports a referenced contract that does not exist.
type DataContractNotPresentError struct {
	DataContractID identifier.Identifier
}

func (e *DataContractNotPresentError) Error() string {
	return fmt.Sprintf("data contract %s is not present", e.DataContractID)
}

func (e *DataContractNotPresentError) Kind() ErrorKind { return KindDataContractNotPresent }

// DataContractFetchError reports a repository failure while fetching a contract.
type DataContractFetchError struct {
	DataContractID identifier.Identifier
	Cause          error
}

func (e *DataContractFetchError) Error() string {
	return fmt.Sprintf("fetch data contract %s: %v", e.DataContractID, e.Cause)
}

func (e *DataContractFetchError) Kind() ErrorKind { return KindDataContractFetch }

func (e *DataContractFetchError) Unwrap() error { return e.Cause }

// MissingDocumentTypeError reports a transition without $type.
type MissingDocumentTypeError struct {
	Transition map[string]any
}

func (e *MissingDocumentTypeError) Error() string {
	return "$type is not present"
}

func (e *MissingDocumentTypeError) Kind() ErrorKind { return KindMissingDocumentType }

// InvalidDocumentTypeError reports a $type the contract does not define.
type InvalidDocumentTypeError struct {
	Type     any
	Contract *contract.DataContract
}

func (e *InvalidDocumentTypeError) Error() string {
	if e.Contract == nil {
		return fmt.Sprintf("document type %v is not defined", e.Type)
	}
	return fmt.Sprintf("contract %s doesn't define document type %v", e.Contract.ID, e.Type)
}

func (e *InvalidDocumentTypeError) Kind() ErrorKind { return KindInvalidDocumentType }

// MissingDocumentTransitionActionError reports a transition without $action.
type MissingDocumentTransitionActionError struct {
	Transition map[string]any
}

func (e *MissingDocumentTransitionActionError) Error() string {
	return "$action is not present"
}

func (e *MissingDocumentTransitionActionError) Kind() ErrorKind {
	return KindMissingDocumentTransitionAction
}

// InvalidDocumentTransitionActionError reports an unrecognized $action.
type InvalidDocumentTransitionActionError struct {
	Action     any
	Transition map[string]any
}

func (e *InvalidDocumentTransitionActionError) Error() string {
	return fmt.Sprintf("document transition action %v is not supported", e.Action)
}

func (e *InvalidDocumentTransitionActionError) Kind() ErrorKind {
	return KindInvalidDocumentTransitionAction
}

// InvalidDocumentTransitionIDError reports a CREATE $id that does not match the derived id.
type InvalidDocumentTransitionIDError struct {
	Transition map[string]any
	ExpectedID identifier.Identifier
}

func (e *InvalidDocumentTransitionIDError) Error() string {
	return fmt.Sprintf("invalid document transition id, expected %s", e.ExpectedID)
}

func (e *InvalidDocumentTransitionIDError) Kind() ErrorKind { return KindInvalidDocumentTransitionID }

// DuplicateDocumentTransitionsError reports transitions that collide by id or by unique index.
type DuplicateDocumentTransitionsError struct {
	Transitions []map[string]any
}

func (e *DuplicateDocumentTransitionsError) Error() string {
	return fmt.Sprintf("%d document transitions are duplicated", len(e.Transitions))
}

func (e *DuplicateDocumentTransitionsError) Kind() ErrorKind { return KindDuplicateDocumentTransitions }

// InconsistentCompoundIndexDataError reports a unique index whose properties are partially set.
type InconsistentCompoundIndexDataError struct {
	DocumentType    string
	IndexDefinition contract.IndexDefinition
}

func (e *InconsistentCompoundIndexDataError) Error() string {
	return fmt.Sprintf("unique compound index properties %v of %s are partially set",
		e.IndexDefinition.PropertyNames(), e.DocumentType)
}

func (e *InconsistentCompoundIndexDataError) Kind() ErrorKind {
	return KindInconsistentCompoundIndexData
}

// DocumentEntropyMismatchError reports a document whose entropy differs from its stored version.
type DocumentEntropyMismatchError struct {
	Document        map[string]any
	FetchedDocument map[string]any
}

func (e *DocumentEntropyMismatchError) Error() string {
	return "document entropy mismatch with previous versions"
}

func (e *DocumentEntropyMismatchError) Kind() ErrorKind { return KindDocumentEntropyMismatch }

// BalanceIsNotEnoughError reports a fee higher than the available balance.
type BalanceIsNotEnoughError struct {
	Balance uint64
	Fee     uint64
}

func (e *BalanceIsNotEnoughError) Error() string {
	return fmt.Sprintf("balance %d is not enough to pay fee %d", e.Balance, e.Fee)
}

func (e *BalanceIsNotEnoughError) Kind() ErrorKind { return KindBalanceIsNotEnough }

// IdentityNotFoundError reports an identity that does not exist or could not be fetched.
type IdentityNotFoundError struct {
	IdentityID identifier.Identifier
	Cause      error // Cause is the repository failure, nil when the identity is absent
}

func (e *IdentityNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("identity %s could not be fetched: %v", e.IdentityID, e.Cause)
	}
	return fmt.Sprintf("identity %s not found", e.IdentityID)
}

func (e *IdentityNotFoundError) Kind() ErrorKind { return KindIdentityNotFound }

func (e *IdentityNotFoundError) Unwrap() error { return e.Cause }

// MissingPublicKeyError reports a signing key id the identity does not hold.
type MissingPublicKeyError struct {
	PublicKeyID uint32
}

func (e *MissingPublicKeyError) Error() string {
	return fmt.Sprintf("public key %d is not present", e.PublicKeyID)
}

func (e *MissingPublicKeyError) Kind() ErrorKind { return KindMissingPublicKey }

// PublicKeyDisabledError reports a signing key that has been disabled.
type PublicKeyDisabledError struct {
	PublicKeyID uint32
}

func (e *PublicKeyDisabledError) Error() string {
	return fmt.Sprintf("public key %d is disabled", e.PublicKeyID)
}

func (e *PublicKeyDisabledError) Kind() ErrorKind { return KindPublicKeyDisabled }

// InvalidIdentityPublicKeyTypeError reports a key type that cannot verify signatures.
type InvalidIdentityPublicKeyTypeError struct {
	Type uint8
}

func (e *InvalidIdentityPublicKeyTypeError) Error() string {
	return fmt.Sprintf("invalid identity public key type %d", e.Type)
}

func (e *InvalidIdentityPublicKeyTypeError) Kind() ErrorKind {
	return KindInvalidIdentityPublicKeyType
}

// InvalidStateTransitionSignatureError reports a signature that does not verify.
type InvalidStateTransitionSignatureError struct {
	SignerID identifier.Identifier
}

func (e *InvalidStateTransitionSignatureError) Error() string {
	return fmt.Sprintf("invalid state transition signature for %s", e.SignerID)
}

func (e *InvalidStateTransitionSignatureError) Kind() ErrorKind {
	return KindInvalidStateTransitionSignature
}

// InvalidStateTransitionTypeError reports a transition type the caller cannot handle.
// It signals protocol misuse and is returned as a Go error, never inside a Result.
type InvalidStateTransitionTypeError struct {
	Type          uint8
	RawTransition any
}

func (e *InvalidStateTransitionTypeError) Error() string {
	return fmt.Sprintf("invalid state transition type %d", e.Type)
}

func (e *InvalidStateTransitionTypeError) Kind() ErrorKind { return KindInvalidStateTransitionType }
