package document

import (
	"fmt"

	"DocLedger/internal/canonical"
	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
	"DocLedger/internal/transition"
)

// BatchTransition is the logical form of a structurally valid documents batch.
type BatchTransition struct {
	protocolVersion      uint32
	ownerID              identifier.Identifier
	transitions          []Transition
	contracts            map[identifier.Identifier]*contract.DataContract
	signaturePublicKeyID uint32
	signature            []byte
}

// NewBatchTransition builds a batch from its raw form. Every transition must
// target one of contracts.
func NewBatchTransition(raw RawBatch, contracts []*contract.DataContract) (*BatchTransition, error) {
	ownerID, err := identifier.From(raw["ownerId"])
	if err != nil {
		return nil, fmt.Errorf("ownerId:\n%w", err)
	}

	version, ok := toInt64(raw["protocolVersion"])
	if !ok || version < 0 {
		return nil, fmt.Errorf("invalid protocolVersion %v", raw["protocolVersion"])
	}

	b := &BatchTransition{
		protocolVersion: uint32(version),
		ownerID:         ownerID,
		contracts:       make(map[identifier.Identifier]*contract.DataContract, len(contracts)),
	}

	for _, c := range contracts {
		b.contracts[c.ID] = c
	}

	if keyID, present := raw["signaturePublicKeyId"]; present {
		n, ok := toInt64(keyID)
		if !ok || n < 0 {
			return nil, fmt.Errorf("invalid signaturePublicKeyId %v", keyID)
		}
		b.signaturePublicKeyID = uint32(n)
	}

	if sig, present := raw["signature"]; present {
		if b.signature, err = identifier.Bytes(sig); err != nil {
			return nil, fmt.Errorf("signature:\n%w", err)
		}
	}

	for i, rt := range rawTransitions(raw["transitions"]) {
		t, err := TransitionFromRaw(rt)
		if err != nil {
			return nil, fmt.Errorf("transition %d:\n%w", i, err)
		}

		if _, ok := b.contracts[t.ContractID()]; !ok {
			return nil, fmt.Errorf("transition %d: data contract %s is not provided", i, t.ContractID())
		}

		b.transitions = append(b.transitions, t)
	}

	return b, nil
}

// LoadBatchTransition builds a batch, fetching the contracts its transitions target.
// The batch is expected to have passed the StructureValidator.
func LoadBatchTransition(raw RawBatch, contracts ContractFetcher) (*BatchTransition, error) {
	seen := make(map[identifier.Identifier]bool)
	var loaded []*contract.DataContract

	for _, t := range rawTransitions(raw["transitions"]) {
		id, err := identifier.From(t["$dataContractId"])
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true

		c, err := contracts.FetchDataContract(id)
		if err != nil {
			return nil, fmt.Errorf("fetch data contract %s:\n%w", id, err)
		}
		if c != nil {
			loaded = append(loaded, c)
		}
	}

	return NewBatchTransition(raw, loaded)
}

// Type implements transition.StateTransition.
func (b *BatchTransition) Type() transition.Type { return transition.DocumentsBatch }

// OwnerID returns the identity submitting the batch.
func (b *BatchTransition) OwnerID() identifier.Identifier { return b.ownerID }

// ProtocolVersion returns the protocol version the batch was built for.
func (b *BatchTransition) ProtocolVersion() uint32 { return b.protocolVersion }

// Transitions returns the document transitions in batch order.
func (b *BatchTransition) Transitions() []Transition { return b.transitions }

// DataContract returns the contract of a transition, or nil.
func (b *BatchTransition) DataContract(id identifier.Identifier) *contract.DataContract {
	return b.contracts[id]
}

// Signature returns the raw signature.
func (b *BatchTransition) Signature() []byte { return b.signature }

// SignaturePublicKeyID returns the id of the owner's signing key.
func (b *BatchTransition) SignaturePublicKeyID() uint32 { return b.signaturePublicKeyID }

// SetSignature stores a signature made by the given key over SignableHash.
func (b *BatchTransition) SetSignature(keyID uint32, signature []byte) {
	b.signaturePublicKeyID = keyID
	b.signature = append([]byte(nil), signature...)
}

// ToObject returns the raw form of the batch.
func (b *BatchTransition) ToObject() map[string]any {
	obj := b.unsignedObject()
	obj["signaturePublicKeyId"] = b.signaturePublicKeyID
	obj["signature"] = b.signature
	return obj
}

// SignableHash returns the blake3 hash of the canonical raw form without
// the signature and the signing key id.
func (b *BatchTransition) SignableHash() ([32]byte, error) {
	hash, err := canonical.Hash(b.unsignedObject())
	if err != nil {
		return hash, fmt.Errorf("hash documents batch:\n%w", err)
	}
	return hash, nil
}

func (b *BatchTransition) unsignedObject() map[string]any {
	transitions := make([]any, len(b.transitions))
	for i, t := range b.transitions {
		transitions[i] = t.ToObject()
	}

	return map[string]any{
		"protocolVersion": b.protocolVersion,
		"type":            uint8(transition.DocumentsBatch),
		"ownerId":         b.ownerID,
		"transitions":     transitions,
	}
}

// rawTransitions extracts the transitions array of a raw batch, skipping non-objects.
func rawTransitions(v any) []RawTransition {
	switch items := v.(type) {
	case []RawTransition:
		return items
	case []any:
		out := make([]RawTransition, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
