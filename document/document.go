// Package document defines the schemaless document model shared by the
// validator, the rights resolver, and the storage backends. A document is a
// plain JSON object; typed accessors read the reserved $-prefixed fields.
package document

import (
	"encoding/json"
	"fmt"
)

// Document types accepted by the platform. Any other $type is rejected on
// write.
const (
	TypeEntry = "entry"
	TypeGroup = "group"
	TypeDB    = "db"
	TypeLog   = "log"
	TypeUser  = "user"
	TypeToken = "token"
)

// Keys of the two singleton db documents.
const (
	RightsDocID        = "rights"
	DefaultGroupsDocID = "defaultGroups"
)

// Document is a decoded JSON object. Values follow encoding/json
// conventions: numbers may arrive as float64, int, int64 or json.Number
// depending on the decoder, and arrays arrive as []any.
type Document map[string]any

// DefaultGroups is the decoded db/defaultGroups singleton: group names
// implicitly applied to the two pseudo-principals.
type DefaultGroups struct {
	Anonymous []string
	AnyUser   []string
}

func (d Document) str(field string) string {
	s, _ := d[field].(string)
	return s
}

// Type returns the document $type, or "" when absent.
func (d Document) Type() string { return d.str("$type") }

// Kind returns the entry classification $kind.
func (d Document) Kind() string { return d.str("$kind") }

// Name returns the group name field.
func (d Document) Name() string { return d.str("name") }

// LastModification returns the principal recorded on the last revision.
func (d Document) LastModification() string { return d.str("$lastModification") }

// UUID returns the token uuid field.
func (d Document) UUID() string { return d.str("uuid") }

// Owner returns the single $owner reference carried by token documents.
func (d Document) Owner() string { return d.str("$owner") }

// User returns the user document's email field.
func (d Document) User() string { return d.str("user") }

// ID returns the raw $id value: a string or an ordered array.
func (d Document) ID() any { return d["$id"] }

// IDKey returns the canonical JSON encoding of $id, usable as a comparison
// and storage key. Array ids compare element-wise through their encoding.
func (d Document) IDKey() string { return canonical(d["$id"]) }

// Owners returns the ordered $owners chain. Index 0 is the primary owner.
func (d Document) Owners() []string { return StringSlice(d["$owners"]) }

// Users returns the group member list.
func (d Document) Users() []string { return StringSlice(d["users"]) }

// Rights returns the rights array of a group or token document.
func (d Document) Rights() []string { return StringSlice(d["rights"]) }

// Parents returns the optional hierarchical parent identifiers.
func (d Document) Parents() []string { return StringSlice(d["$parents"]) }

// CreationDate returns the numeric $creationDate timestamp. ok is false
// when the field is absent or not a number.
func (d Document) CreationDate() (int64, bool) { return Number(d["$creationDate"]) }

// ModificationDate returns the numeric $modificationDate timestamp.
func (d Document) ModificationDate() (int64, bool) { return Number(d["$modificationDate"]) }

// StorageKey derives the flat key under which a document is persisted.
// Entries are scoped by kind, groups by name, db singletons by id.
func StorageKey(d Document) string {
	switch d.Type() {
	case TypeEntry:
		return fmt.Sprintf("entry/%s/%s", d.Kind(), d.IDKey())
	case TypeGroup:
		return "group/" + d.Name()
	case TypeDB:
		return "db/" + d.str("$id")
	case TypeUser:
		return "user/" + d.User()
	case TypeToken:
		return "token/" + d.UUID()
	case TypeLog:
		return "log/" + d.IDKey()
	default:
		return d.IDKey()
	}
}

// Clone returns a deep copy of the document. Maps and slices are copied
// recursively; scalar values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Document:
		return map[string]any(t.Clone())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// StringSlice coerces a decoded JSON value into a string slice. Non-string
// elements are preserved as empty strings so validation can flag them.
func StringSlice(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return t
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			s, _ := e.(string)
			out[i] = s
		}
		return out
	default:
		return nil
	}
}

// IsArray reports whether a decoded JSON value is an array.
func IsArray(v any) bool {
	switch v.(type) {
	case []any, []string:
		return true
	default:
		return false
	}
}

// Number coerces the numeric representations produced by different JSON
// decoders into an int64 timestamp.
func Number(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	default:
		return 0, false
	}
}

func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
