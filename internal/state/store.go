// Package state persists the chain state the validators read: identities
// and data contracts.
package state

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"DocLedger/internal/contract"
	"DocLedger/internal/identifier"
	"DocLedger/internal/identity"
	"DocLedger/internal/logger"
	"DocLedger/internal/storage"
)

// Key prefixes, one per record kind.
const (
	prefixContract byte = 'c'
	prefixIdentity byte = 'i'
)

// Store reads and writes identities and data contracts.
// It is safe for concurrent use.
type Store struct {
	db      *storage.Storage
	encoder *zstd.Encoder // encoder compresses contract bodies (EncodeAll is concurrency safe)
	decoder *zstd.Decoder // decoder decompresses contract bodies (DecodeAll is concurrency safe)
}

// New creates a store over db. The caller keeps ownership of db.
func New(db *storage.Storage) (*Store, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder:\n%w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder:\n%w", err)
	}

	return &Store{db: db, encoder: encoder, decoder: decoder}, nil
}

// Close releases the compression resources. It does not close the database.
func (s *Store) Close() {
	s.encoder.Close()
	s.decoder.Close()
}

// FetchDataContract returns the contract with the given id, or nil, nil if absent.
func (s *Store) FetchDataContract(id identifier.Identifier) (*contract.DataContract, error) {
	data, err := s.db.Get(key(prefixContract, id))
	if err != nil {
		return nil, fmt.Errorf("load data contract %s:\n%w", id, err)
	}

	if data == nil {
		return nil, nil
	}

	return s.decodeContract(data)
}

// FetchIdentity returns the identity with the given id, or nil, nil if absent.
func (s *Store) FetchIdentity(id identifier.Identifier) (*identity.Identity, error) {
	data, err := s.db.Get(key(prefixIdentity, id))
	if err != nil {
		return nil, fmt.Errorf("load identity %s:\n%w", id, err)
	}

	if data == nil {
		return nil, nil
	}

	return decodeIdentity(data)
}

// StoreDataContract writes c, replacing any contract with the same id.
func (s *Store) StoreDataContract(c *contract.DataContract) error {
	return s.Import([]*contract.DataContract{c}, nil)
}

// StoreIdentity writes ident, replacing any identity with the same id.
func (s *Store) StoreIdentity(ident *identity.Identity) error {
	return s.Import(nil, []*identity.Identity{ident})
}

// Import writes contracts and identities in a single atomic batch.
func (s *Store) Import(contracts []*contract.DataContract, identities []*identity.Identity) error {
	ops := make([]storage.Op, 0, len(contracts)+len(identities))

	for _, c := range contracts {
		value, err := s.encodeContract(c)
		if err != nil {
			return err
		}
		ops = append(ops, storage.Op{Key: key(prefixContract, c.ID), Value: value})
	}

	for _, ident := range identities {
		ops = append(ops, storage.Op{Key: key(prefixIdentity, ident.ID), Value: encodeIdentity(ident)})
	}

	if err := s.db.Apply(ops); err != nil {
		return fmt.Errorf("import %d contracts and %d identities:\n%w", len(contracts), len(identities), err)
	}

	logger.Debug("state imported", "contracts", len(contracts), "identities", len(identities))

	return nil
}

// DataContracts returns every stored contract ordered by id.
func (s *Store) DataContracts() ([]*contract.DataContract, error) {
	var out []*contract.DataContract

	err := s.db.IteratePrefix([]byte{prefixContract}, func(_, value []byte) error {
		c, err := s.decodeContract(value)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list data contracts:\n%w", err)
	}

	return out, nil
}

// Identities returns every stored identity ordered by id.
func (s *Store) Identities() ([]*identity.Identity, error) {
	var out []*identity.Identity

	err := s.db.IteratePrefix([]byte{prefixIdentity}, func(_, value []byte) error {
		ident, err := decodeIdentity(value)
		if err != nil {
			return err
		}
		out = append(out, ident)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list identities:\n%w", err)
	}

	return out, nil
}

func (s *Store) encodeContract(c *contract.DataContract) ([]byte, error) {
	body, err := c.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode data contract %s:\n%w", c.ID, err)
	}

	return encodeContract(c, s.encoder.EncodeAll(body, nil)), nil
}

// decodeContract rebuilds a contract and checks it still hashes to the
// schema id it was stored with.
func (s *Store) decodeContract(data []byte) (*contract.DataContract, error) {
	rec, err := decodeContractRecord(data)
	if err != nil {
		return nil, err
	}

	body, err := s.decoder.DecodeAll(rec.body, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress contract %s: %v", ErrCorruptRecord, rec.id, err)
	}

	c, err := contract.FromJSON(body)
	if err != nil {
		return nil, fmt.Errorf("%w: contract %s:\n%w", ErrCorruptRecord, rec.id, err)
	}

	if c.ID != rec.id || c.SchemaID() != rec.schemaID {
		return nil, fmt.Errorf("%w: contract %s does not match its record header", ErrCorruptRecord, rec.id)
	}

	return c, nil
}

// key builds the storage key of a record: one prefix byte then the id.
func key(prefix byte, id identifier.Identifier) []byte {
	k := make([]byte, 0, 1+identifier.Size)
	k = append(k, prefix)
	return append(k, id[:]...)
}
