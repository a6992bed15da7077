package state

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"

	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
	"DocLedger/internal/identity"
	"DocLedger/internal/types"
)

// ErrCorruptRecord is wrapped by every failure to decode a stored record.
var ErrCorruptRecord = errors.New("corrupt state record")

// encodeIdentity serializes an identity into a types.Identity table.
func encodeIdentity(ident *identity.Identity) []byte {
	builder := flatbuffers.NewBuilder(256)

	keys := make([]flatbuffers.UOffsetT, len(ident.PublicKeys))
	for i, pk := range ident.PublicKeys {
		data := builder.CreateByteVector(pk.Data)

		types.PublicKeyStart(builder)
		types.PublicKeyAddId(builder, pk.ID)
		types.PublicKeyAddKeyType(builder, byte(pk.Type))
		types.PublicKeyAddData(builder, data)
		types.PublicKeyAddDisabled(builder, pk.Disabled)
		keys[i] = types.PublicKeyEnd(builder)
	}

	types.IdentityStartPublicKeysVector(builder, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(keys[i])
	}
	keysVec := builder.EndVector(len(keys))

	id := builder.CreateByteVector(ident.ID[:])

	types.IdentityStart(builder)
	types.IdentityAddId(builder, id)
	types.IdentityAddBalance(builder, ident.Balance)
	types.IdentityAddRevision(builder, ident.Revision)
	types.IdentityAddPublicKeys(builder, keysVec)
	builder.Finish(types.IdentityEnd(builder))

	return builder.FinishedBytes()
}

// decodeIdentity parses a types.Identity table.
func decodeIdentity(data []byte) (ident *identity.Identity, err error) {
	// Truncated buffers make the generated accessors index out of range.
	defer func() {
		if r := recover(); r != nil {
			ident, err = nil, fmt.Errorf("%w: identity: %v", ErrCorruptRecord, r)
		}
	}()

	rec := types.GetRootAsIdentity(data, 0)

	id, err := identifier.From(rec.IdBytes())
	if err != nil {
		return nil, fmt.Errorf("%w: identity id: %v", ErrCorruptRecord, err)
	}

	ident = &identity.Identity{
		ID:         id,
		Balance:    rec.Balance(),
		Revision:   rec.Revision(),
		PublicKeys: make([]identity.PublicKey, rec.PublicKeysLength()),
	}

	var pk types.PublicKey
	for i := range ident.PublicKeys {
		rec.PublicKeys(&pk, i)

		ident.PublicKeys[i] = identity.PublicKey{
			ID:       pk.Id(),
			Type:     identity.KeyType(pk.KeyType()),
			Data:     append([]byte(nil), pk.DataBytes()...),
			Disabled: pk.Disabled(),
		}
	}

	return ident, nil
}

// encodeContract serializes a contract into a types.Contract table.
// body is the compressed contract JSON.
func encodeContract(c *contract.DataContract, body []byte) []byte {
	builder := flatbuffers.NewBuilder(len(body) + 256)

	bodyVec := builder.CreateByteVector(body)
	schemaID := c.SchemaID()
	schemaVec := builder.CreateByteVector(schemaID[:])
	ownerVec := builder.CreateByteVector(c.OwnerID[:])
	idVec := builder.CreateByteVector(c.ID[:])

	types.ContractStart(builder)
	types.ContractAddId(builder, idVec)
	types.ContractAddOwnerId(builder, ownerVec)
	types.ContractAddVersion(builder, c.Version)
	types.ContractAddSchemaId(builder, schemaVec)
	types.ContractAddBody(builder, bodyVec)
	builder.Finish(types.ContractEnd(builder))

	return builder.FinishedBytes()
}

// contractRecord is a decoded types.Contract table whose body is still compressed.
type contractRecord struct {
	id       identifier.Identifier
	schemaID identifier.Identifier
	body     []byte
}

func decodeContractRecord(data []byte) (rec contractRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: contract: %v", ErrCorruptRecord, r)
		}
	}()

	fb := types.GetRootAsContract(data, 0)

	if rec.id, err = identifier.From(fb.IdBytes()); err != nil {
		return rec, fmt.Errorf("%w: contract id: %v", ErrCorruptRecord, err)
	}

	if rec.schemaID, err = identifier.From(fb.SchemaIdBytes()); err != nil {
		return rec, fmt.Errorf("%w: contract schema id: %v", ErrCorruptRecord, err)
	}

	rec.body = fb.BodyBytes()

	return rec, nil
}
