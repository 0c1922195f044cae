package persist

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Identified is implemented by entities carrying an integer identifier.
type Identified interface {
	EntityID() int64
}

// NextID allocates the identifier for a new entity: 1 for an empty set,
// otherwise max+1. Deleted IDs are never reused and gaps are never filled.
// Allocation is not safe under concurrent writers; nothing else in the
// write path coordinates either, so the last full overwrite wins.
func NextID[E Identified](entities []E) int64 {
	next := int64(1)
	for _, e := range entities {
		if id := e.EntityID(); id >= next {
			next = id + 1
		}
	}
	return next
}

// CollectionRef is a nullable reference from a photo to a collection. The
// two backing stores disagree on how the reference is encoded (integer vs
// string-encoded integer), so every equality check between refs from
// different sources goes through the canonical form returned by Key.
type CollectionRef struct {
	id    int64
	valid bool
}

// NewCollectionRef returns a reference to the given collection ID.
func NewCollectionRef(id int64) CollectionRef {
	return CollectionRef{id: id, valid: true}
}

// ErrInvalidCollectionRef is returned when a value cannot be interpreted as
// a collection reference
type ErrInvalidCollectionRef struct {
	Value string
}

func (e ErrInvalidCollectionRef) Error() string {
	return fmt.Sprintf("invalid collection id: %s", e.Value)
}

// ParseCollectionRef interprets a raw store value as a collection reference.
// nil and the empty string mean "no collection"; numeric strings and numbers
// resolve to the referenced ID; anything else is an error.
func ParseCollectionRef(raw interface{}) (CollectionRef, error) {
	switch t := raw.(type) {
	case nil:
		return CollectionRef{}, nil
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return CollectionRef{}, nil
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return CollectionRef{}, ErrInvalidCollectionRef{Value: t}
		}
		return NewCollectionRef(id), nil
	case float64:
		return NewCollectionRef(int64(t)), nil
	case int:
		return NewCollectionRef(int64(t)), nil
	case int64:
		return NewCollectionRef(t), nil
	case json.Number:
		id, err := t.Int64()
		if err != nil {
			return CollectionRef{}, ErrInvalidCollectionRef{Value: t.String()}
		}
		return NewCollectionRef(id), nil
	default:
		return CollectionRef{}, ErrInvalidCollectionRef{Value: fmt.Sprintf("%v", raw)}
	}
}

// Valid reports whether the reference points at a collection at all.
func (r CollectionRef) Valid() bool {
	return r.valid
}

// ID returns the referenced collection ID, 0 when the reference is null.
func (r CollectionRef) ID() int64 {
	if !r.valid {
		return 0
	}
	return r.id
}

// Key returns the canonical string form of the reference, "" when null.
func (r CollectionRef) Key() string {
	if !r.valid {
		return ""
	}
	return strconv.FormatInt(r.id, 10)
}

// References reports whether the reference points at the given collection ID.
func (r CollectionRef) References(collectionID int64) bool {
	return r.valid && r.Key() == strconv.FormatInt(collectionID, 10)
}

// Equals compares two references by canonical form.
func (r CollectionRef) Equals(other CollectionRef) bool {
	return r.Key() == other.Key()
}

// MarshalJSON serializes the reference as a JSON number or null.
func (r CollectionRef) MarshalJSON() ([]byte, error) {
	if !r.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(r.id, 10)), nil
}

// UnmarshalJSON accepts null, a number, or a string-encoded number. The local
// snapshot writes numbers but older snapshots and remote contexts carry
// strings.
func (r *CollectionRef) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCollectionRef(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
