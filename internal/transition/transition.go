package transition

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"DocLedger/internal/canonical"
	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
)

// Type is the state transition type tag.
type Type uint8

const (
	DataContractCreate Type = 0
	DocumentsBatch     Type = 1
	IdentityCreate     Type = 2
	IdentityTopUp      Type = 3
	DataContractUpdate Type = 4
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case DataContractCreate:
		return "DATA_CONTRACT_CREATE"
	case DocumentsBatch:
		return "DOCUMENTS_BATCH"
	case IdentityCreate:
		return "IDENTITY_CREATE"
	case IdentityTopUp:
		return "IDENTITY_TOP_UP"
	case DataContractUpdate:
		return "DATA_CONTRACT_UPDATE"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// StateTransition is a candidate change of chain state.
type StateTransition interface {
	// Type returns the transition type tag.
	Type() Type

	// ToObject returns the raw object form of the transition.
	ToObject() map[string]any
}

// Owned is a transition paid for by an existing identity.
type Owned interface {
	StateTransition
	OwnerID() identifier.Identifier
}

// Funded is a transition paid for by an asset lock output.
type Funded interface {
	StateTransition
	AssetLock() AssetLock
	IdentityID() identifier.Identifier
}

// Size returns the length of the canonical encoding of a transition.
func Size(st StateTransition) (int, error) {
	data, err := canonical.Marshal(st.ToObject())
	if err != nil {
		return 0, fmt.Errorf("encode %s transition:\n%w", st.Type(), err)
	}
	return len(data), nil
}

// AssetLock references a one-time output locking funds on the payment chain.
type AssetLock struct {
	TxID        [32]byte // TxID is the locking transaction hash
	OutputIndex uint32   // OutputIndex is the index of the locked output
	Satoshis    uint64   // Satoshis is the locked output value
}

// OutPoint returns the serialized outpoint (txid || little-endian index).
func (a AssetLock) OutPoint() []byte {
	out := make([]byte, 36)
	copy(out, a.TxID[:])
	binary.LittleEndian.PutUint32(out[32:], a.OutputIndex)
	return out
}

// ToObject returns the raw object form of the asset lock.
func (a AssetLock) ToObject() map[string]any {
	return map[string]any{
		"transaction": a.TxID[:],
		"outputIndex": a.OutputIndex,
		"satoshis":    a.Satoshis,
	}
}

// IdentityCreateTransition registers a new identity funded by an asset lock.
type IdentityCreateTransition struct {
	Lock       AssetLock // Lock funds the new identity
	PublicKeys [][]byte  // PublicKeys are the initial key data
}

func (t *IdentityCreateTransition) Type() Type { return IdentityCreate }

// AssetLock returns the funding lock.
func (t *IdentityCreateTransition) AssetLock() AssetLock { return t.Lock }

// IdentityID derives the new identity's id from the lock outpoint.
func (t *IdentityCreateTransition) IdentityID() identifier.Identifier {
	return identifier.Identifier(blake3.Sum256(t.Lock.OutPoint()))
}

func (t *IdentityCreateTransition) ToObject() map[string]any {
	keys := make([]any, len(t.PublicKeys))
	for i, k := range t.PublicKeys {
		keys[i] = k
	}

	return map[string]any{
		"type":       uint8(IdentityCreate),
		"assetLock":  t.Lock.ToObject(),
		"publicKeys": keys,
	}
}

// IdentityTopUpTransition adds asset-lock funds to an existing identity.
type IdentityTopUpTransition struct {
	Lock     AssetLock             // Lock funds the top up
	Identity identifier.Identifier // Identity is the identity being topped up
}

func (t *IdentityTopUpTransition) Type() Type { return IdentityTopUp }

// AssetLock returns the funding lock.
func (t *IdentityTopUpTransition) AssetLock() AssetLock { return t.Lock }

// IdentityID returns the identity being topped up.
func (t *IdentityTopUpTransition) IdentityID() identifier.Identifier { return t.Identity }

func (t *IdentityTopUpTransition) ToObject() map[string]any {
	return map[string]any{
		"type":       uint8(IdentityTopUp),
		"assetLock":  t.Lock.ToObject(),
		"identityId": t.Identity,
	}
}

// DataContractCreateTransition registers a new data contract.
type DataContractCreateTransition struct {
	Contract *contract.DataContract // Contract is the contract being registered
	Entropy  []byte                 // Entropy was mixed into the contract id
}

func (t *DataContractCreateTransition) Type() Type { return DataContractCreate }

// OwnerID returns the contract owner, who pays the fee.
func (t *DataContractCreateTransition) OwnerID() identifier.Identifier { return t.Contract.OwnerID }

func (t *DataContractCreateTransition) ToObject() map[string]any {
	return map[string]any{
		"type":         uint8(DataContractCreate),
		"dataContract": t.Contract.ToObject(),
		"entropy":      t.Entropy,
	}
}
