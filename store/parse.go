package store

import (
	"fmt"

	"github.com/avoskresensky/docvault/document"
)

// ParseGlobalRights decodes the db/rights singleton. Every non-reserved
// field must map to an array of principal strings; anything else is an
// ErrConfiguration for the resolution that touched it.
func ParseGlobalRights(doc document.Document) (map[string][]string, error) {
	out := make(map[string][]string, len(doc))
	for right, value := range doc {
		if len(right) > 0 && right[0] == '$' {
			continue
		}
		if !document.IsArray(value) {
			return nil, fmt.Errorf("%w: global right %q is not an array", ErrConfiguration, right)
		}
		out[right] = document.StringSlice(value)
	}
	return out, nil
}

// ParseDefaultGroups decodes the db/defaultGroups singleton.
func ParseDefaultGroups(doc document.Document) (document.DefaultGroups, error) {
	var out document.DefaultGroups
	for field, target := range map[string]*[]string{
		document.Anonymous: &out.Anonymous,
		document.AnyUser:   &out.AnyUser,
	} {
		value, ok := doc[field]
		if !ok {
			continue
		}
		if !document.IsArray(value) {
			return document.DefaultGroups{}, fmt.Errorf("%w: default groups %q is not an array", ErrConfiguration, field)
		}
		*target = document.StringSlice(value)
	}
	return out, nil
}
