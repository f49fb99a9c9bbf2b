package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avoskresensky/docvault/document"
)

func byKind(d document.Document) []Row {
	if d.Kind() == "" {
		return nil
	}
	return []Row{{Key: []any{d.Kind()}, Value: 1}}
}

func TestOwnerScoped_FansOutPerOwner(t *testing.T) {
	fn := OwnerScoped(byKind)

	doc := document.Document{
		"$type":   "entry",
		"$kind":   "sample",
		"$owners": []any{"o1@x.com", "lab1"},
	}

	rows := fn(doc)
	assert.Equal(t, []Row{
		{Key: []any{"o1@x.com", "sample"}, Value: 1},
		{Key: []any{"lab1", "sample"}, Value: 1},
	}, rows)
}

func TestOwnerScoped_SkipsNonEntries(t *testing.T) {
	fn := OwnerScoped(byKind)

	group := document.Document{"$type": "group", "$kind": "sample", "$owners": []any{"o1@x.com"}}
	assert.Nil(t, fn(group))
}

func TestOwnerScoped_SkipsEmptyBaseOutput(t *testing.T) {
	fn := OwnerScoped(byKind)

	doc := document.Document{"$type": "entry", "$owners": []any{"o1@x.com"}}
	assert.Nil(t, fn(doc))
}

func TestOwnerScoped_BareValue(t *testing.T) {
	fn := OwnerScoped(func(d document.Document) []Row {
		return []Row{{Value: "v"}}
	})

	doc := document.Document{"$type": "entry", "$owners": []any{"o1@x.com"}}
	assert.Equal(t, []Row{{Key: []any{"o1@x.com"}, Value: "v"}}, fn(doc))
}

func TestOwnerScoped_MultipleRowsPerOwner(t *testing.T) {
	fn := OwnerScoped(func(d document.Document) []Row {
		return []Row{
			{Key: []any{"k1"}, Value: 1},
			{Key: []any{"k2"}, Value: 2},
		}
	})

	doc := document.Document{"$type": "entry", "$owners": []any{"o1@x.com", "o2@x.com"}}
	rows := fn(doc)
	assert.Equal(t, []Row{
		{Key: []any{"o1@x.com", "k1"}, Value: 1},
		{Key: []any{"o1@x.com", "k2"}, Value: 2},
		{Key: []any{"o2@x.com", "k1"}, Value: 1},
		{Key: []any{"o2@x.com", "k2"}, Value: 2},
	}, rows)
}

func TestReduceCount(t *testing.T) {
	assert.Equal(t, 0, ReduceCount(nil))
	assert.Equal(t, 2, ReduceCount([]Row{{}, {}}))
}
