package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/zeebo/blake3"

	"DocLedger/internal/logger"
	"DocLedger/internal/storage"
	"DocLedger/internal/types"
)

// snapshotVersion is the current snapshot format version.
const snapshotVersion = 1

// ErrInvalidSnapshot is wrapped by every snapshot that cannot be restored.
var ErrInvalidSnapshot = errors.New("invalid state snapshot")

// snapshotEntry is one stored record.
type snapshotEntry struct {
	key   []byte
	value []byte
}

// Snapshot dumps every identity and contract into a compressed,
// checksummed snapshot that Restore accepts.
func (s *Store) Snapshot() ([]byte, error) {
	var entries []snapshotEntry

	for _, prefix := range []byte{prefixContract, prefixIdentity} {
		err := s.db.IteratePrefix([]byte{prefix}, func(key, value []byte) error {
			entries = append(entries, snapshotEntry{
				key:   bytes.Clone(key),
				value: bytes.Clone(value),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collect state:\n%w", err)
		}
	}

	data := buildSnapshot(entries)

	logger.Debug("state snapshot created", "records", len(entries), "bytes", len(data))

	return s.encoder.EncodeAll(data, nil), nil
}

// Restore writes every record of a snapshot into the store in one batch.
// Records already in the store and absent from the snapshot are kept.
// It returns the number of restored records.
func (s *Store) Restore(compressed []byte) (int, error) {
	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: decompress: %v", ErrInvalidSnapshot, err)
	}

	entries, err := parseSnapshot(data)
	if err != nil {
		return 0, err
	}

	ops := make([]storage.Op, len(entries))
	for i, e := range entries {
		if err := s.checkRecord(e); err != nil {
			return 0, fmt.Errorf("%w: record %x:\n%w", ErrInvalidSnapshot, e.key, err)
		}
		ops[i] = storage.Op{Key: e.key, Value: e.value}
	}

	if err := s.db.Apply(ops); err != nil {
		return 0, fmt.Errorf("write snapshot:\n%w", err)
	}

	return len(entries), nil
}

// checkRecord decodes a record to make sure its key and value agree.
func (s *Store) checkRecord(e snapshotEntry) error {
	if len(e.key) != 1+32 {
		return fmt.Errorf("key of %d bytes", len(e.key))
	}

	switch e.key[0] {
	case prefixContract:
		c, err := s.decodeContract(e.value)
		if err != nil {
			return err
		}
		if !bytes.Equal(c.ID[:], e.key[1:]) {
			return errors.New("contract stored under another id")
		}

	case prefixIdentity:
		ident, err := decodeIdentity(e.value)
		if err != nil {
			return err
		}
		if !bytes.Equal(ident.ID[:], e.key[1:]) {
			return errors.New("identity stored under another id")
		}

	default:
		return fmt.Errorf("unknown record prefix %q", e.key[0])
	}

	return nil
}

func buildSnapshot(entries []snapshotEntry) []byte {
	checksum := computeChecksum(snapshotVersion, entries)

	builder := flatbuffers.NewBuilder(1024)

	offsets := make([]flatbuffers.UOffsetT, len(entries))
	for i, e := range entries {
		keyOffset := builder.CreateByteVector(e.key)
		valueOffset := builder.CreateByteVector(e.value)

		types.SnapshotEntryStart(builder)
		types.SnapshotEntryAddKey(builder, keyOffset)
		types.SnapshotEntryAddValue(builder, valueOffset)
		offsets[i] = types.SnapshotEntryEnd(builder)
	}

	types.SnapshotStartEntriesVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	entriesVector := builder.EndVector(len(offsets))

	checksumOffset := builder.CreateByteVector(checksum[:])

	types.SnapshotStart(builder)
	types.SnapshotAddVersion(builder, snapshotVersion)
	types.SnapshotAddEntries(builder, entriesVector)
	types.SnapshotAddChecksum(builder, checksumOffset)
	builder.Finish(types.SnapshotEnd(builder))

	return builder.FinishedBytes()
}

// parseSnapshot reads and verifies an uncompressed snapshot.
func parseSnapshot(data []byte) (entries []snapshotEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries, err = nil, fmt.Errorf("%w: malformed: %v", ErrInvalidSnapshot, r)
		}
	}()

	snap := types.GetRootAsSnapshot(data, 0)

	if snap.Version() != snapshotVersion {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidSnapshot, snap.Version())
	}

	entries = make([]snapshotEntry, snap.EntriesLength())

	var e types.SnapshotEntry
	for i := range entries {
		snap.Entries(&e, i)
		entries[i] = snapshotEntry{
			key:   bytes.Clone(e.KeyBytes()),
			value: bytes.Clone(e.ValueBytes()),
		}
	}

	computed := computeChecksum(snap.Version(), entries)
	if !bytes.Equal(computed[:], snap.ChecksumBytes()) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidSnapshot)
	}

	return entries, nil
}

// computeChecksum hashes the version then every entry as
// len(key) key len(value) value, lengths as big-endian uint32.
func computeChecksum(version uint32, entries []snapshotEntry) [32]byte {
	hasher := blake3.New()

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], version)
	hasher.Write(buf[:])

	for _, e := range entries {
		binary.BigEndian.PutUint32(buf[:], uint32(len(e.key)))
		hasher.Write(buf[:])
		hasher.Write(e.key)

		binary.BigEndian.PutUint32(buf[:], uint32(len(e.value)))
		hasher.Write(buf[:])
		hasher.Write(e.value)
	}

	var checksum [32]byte
	hasher.Sum(checksum[:0])

	return checksum
}
