package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"DocLedger/internal/identifier"
)

// RawBatch is the wire form of a documents batch.
type RawBatch = map[string]any

// RawTransition is the wire form of a single document transition.
type RawTransition = map[string]any

// ErrInvalidTransition is wrapped by every failure to build a logical transition.
var ErrInvalidTransition = errors.New("invalid document transition")

// systemFields are transition properties that are not document data.
var systemFields = map[string]bool{
	"$id":             true,
	"$type":           true,
	"$action":         true,
	"$dataContractId": true,
	"$entropy":        true,
	"$createdAt":      true,
	"$updatedAt":      true,
	"$revision":       true,
}

// Transition is a structurally valid document transition.
// It is implemented by *CreateTransition, *ReplaceTransition and *DeleteTransition only.
type Transition interface {
	Action() Action
	DocumentID() identifier.Identifier
	DocumentType() string
	ContractID() identifier.Identifier
	ToObject() map[string]any
	isTransition()
}

// Header holds the fields common to every document transition.
type Header struct {
	ID             identifier.Identifier // ID is the document id
	Type           string                // Type is the document type name
	DataContractID identifier.Identifier // DataContractID is the contract defining Type
}

// DocumentID returns the document id.
func (h Header) DocumentID() identifier.Identifier { return h.ID }

// DocumentType returns the document type name.
func (h Header) DocumentType() string { return h.Type }

// ContractID returns the id of the contract defining the document type.
func (h Header) ContractID() identifier.Identifier { return h.DataContractID }

func (h Header) toObject(action Action) map[string]any {
	return map[string]any{
		"$id":             h.ID,
		"$type":           h.Type,
		"$action":         action.String(),
		"$dataContractId": h.DataContractID,
	}
}

// CreateTransition creates a new document.
type CreateTransition struct {
	Header
	Entropy   []byte         // Entropy was mixed into the document id
	CreatedAt *int64         // CreatedAt is the optional creation time in ms
	UpdatedAt *int64         // UpdatedAt is the optional update time in ms
	Data      map[string]any // Data is the document payload
}

func (t *CreateTransition) Action() Action { return ActionCreate }
func (t *CreateTransition) isTransition()  {}

func (t *CreateTransition) ToObject() map[string]any {
	obj := t.Header.toObject(ActionCreate)
	obj["$entropy"] = t.Entropy
	setTime(obj, "$createdAt", t.CreatedAt)
	setTime(obj, "$updatedAt", t.UpdatedAt)

	for k, v := range t.Data {
		obj[k] = v
	}

	return obj
}

// ReplaceTransition replaces the data of an existing document.
type ReplaceTransition struct {
	Header
	Revision  uint64         // Revision is the new document revision
	UpdatedAt *int64         // UpdatedAt is the optional update time in ms
	Data      map[string]any // Data is the new document payload
}

func (t *ReplaceTransition) Action() Action { return ActionReplace }
func (t *ReplaceTransition) isTransition()  {}

func (t *ReplaceTransition) ToObject() map[string]any {
	obj := t.Header.toObject(ActionReplace)
	obj["$revision"] = t.Revision
	setTime(obj, "$updatedAt", t.UpdatedAt)

	for k, v := range t.Data {
		obj[k] = v
	}

	return obj
}

// DeleteTransition deletes a document.
type DeleteTransition struct {
	Header
}

func (t *DeleteTransition) Action() Action { return ActionDelete }
func (t *DeleteTransition) isTransition()  {}

func (t *DeleteTransition) ToObject() map[string]any {
	return t.Header.toObject(ActionDelete)
}

// TransitionFromRaw builds the logical form of a raw transition.
func TransitionFromRaw(raw RawTransition) (Transition, error) {
	header, err := headerFromRaw(raw)
	if err != nil {
		return nil, err
	}

	action, ok := ParseAction(raw["$action"])
	if !ok {
		return nil, fmt.Errorf("%w: action %v", ErrInvalidTransition, raw["$action"])
	}

	switch action {
	case ActionCreate:
		entropy, err := identifier.Bytes(raw["$entropy"])
		if err != nil {
			return nil, fmt.Errorf("%w: $entropy: %v", ErrInvalidTransition, err)
		}

		t := &CreateTransition{Header: header, Entropy: entropy, Data: documentData(raw)}
		if t.CreatedAt, err = optionalTime(raw, "$createdAt"); err != nil {
			return nil, err
		}
		if t.UpdatedAt, err = optionalTime(raw, "$updatedAt"); err != nil {
			return nil, err
		}
		return t, nil

	case ActionReplace:
		revision, ok := toInt64(raw["$revision"])
		if !ok || revision < 1 {
			return nil, fmt.Errorf("%w: $revision %v", ErrInvalidTransition, raw["$revision"])
		}

		t := &ReplaceTransition{Header: header, Revision: uint64(revision), Data: documentData(raw)}
		if t.UpdatedAt, err = optionalTime(raw, "$updatedAt"); err != nil {
			return nil, err
		}
		return t, nil

	default:
		return &DeleteTransition{Header: header}, nil
	}
}

func headerFromRaw(raw RawTransition) (Header, error) {
	var h Header

	id, err := identifier.From(raw["$id"])
	if err != nil {
		return h, fmt.Errorf("%w: $id: %v", ErrInvalidTransition, err)
	}

	contractID, err := identifier.From(raw["$dataContractId"])
	if err != nil {
		return h, fmt.Errorf("%w: $dataContractId: %v", ErrInvalidTransition, err)
	}

	docType, ok := raw["$type"].(string)
	if !ok {
		return h, fmt.Errorf("%w: $type %v", ErrInvalidTransition, raw["$type"])
	}

	return Header{ID: id, Type: docType, DataContractID: contractID}, nil
}

// documentData returns the non-system properties of a raw transition.
func documentData(raw RawTransition) map[string]any {
	data := make(map[string]any)
	for k, v := range raw {
		if !systemFields[k] {
			data[k] = v
		}
	}
	return data
}

func optionalTime(raw RawTransition, name string) (*int64, error) {
	v, present := raw[name]
	if !present {
		return nil, nil
	}

	n, ok := toInt64(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s %v", ErrInvalidTransition, name, v)
	}

	return &n, nil
}

func setTime(obj map[string]any, name string, v *int64) {
	if v != nil {
		obj[name] = *v
	}
}

// toInt64 converts the integer forms a decoded payload may hold.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
