package mutate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoskresensky/docvault/document"
	"github.com/avoskresensky/docvault/store"
	"github.com/avoskresensky/docvault/store/memory"
	"github.com/avoskresensky/docvault/validate"
)

func newEntry(mod float64) document.Document {
	return document.Document{
		"$type":             "entry",
		"$id":               "e1",
		"$kind":             "sample",
		"$owners":           []any{"a@x.com"},
		"$creationDate":     float64(100),
		"$modificationDate": mod,
		"$lastModification": "a@x.com",
	}
}

// conflictStore wraps the in-memory store and fails the first n writes
// with a conflict, simulating concurrent writers.
type conflictStore struct {
	*memory.Store
	conflicts int
	puts      int
}

func (c *conflictStore) PutDocument(ctx context.Context, key string, doc document.Document, expectedRev int64) (int64, error) {
	c.puts++
	if c.conflicts > 0 {
		c.conflicts--
		return 0, store.ErrWriteConflict
	}
	return c.Store.PutDocument(ctx, key, doc, expectedRev)
}

func TestUpdate_Create(t *testing.T) {
	st := memory.New()
	v := &validate.Validator{}
	ctx := context.Background()

	err := Update(ctx, st, v, "entry/sample/e1", "a@x.com", func(current document.Document) (document.Document, error) {
		require.Nil(t, current)
		return newEntry(100), nil
	}, 3)
	require.NoError(t, err)

	got, rev, err := st.GetDocument(ctx, "entry/sample/e1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)
	assert.Equal(t, "sample", got.Kind())
}

func TestUpdate_ModifyExisting(t *testing.T) {
	st := memory.New()
	v := &validate.Validator{}
	ctx := context.Background()

	_, err := st.PutDocument(ctx, "entry/sample/e1", newEntry(100), 0)
	require.NoError(t, err)

	err = Update(ctx, st, v, "entry/sample/e1", "b@x.com", func(current document.Document) (document.Document, error) {
		current["$owners"] = []any{"a@x.com", "b@x.com"}
		current["$modificationDate"] = float64(200)
		current["$lastModification"] = "b@x.com"
		return current, nil
	}, 3)
	require.NoError(t, err)

	got, rev, err := st.GetDocument(ctx, "entry/sample/e1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, got.Owners())
}

func TestUpdate_RetriesOnConflict(t *testing.T) {
	st := &conflictStore{Store: memory.New(), conflicts: 2}
	v := &validate.Validator{}
	ctx := context.Background()

	err := Update(ctx, st, v, "entry/sample/e1", "a@x.com", func(current document.Document) (document.Document, error) {
		return newEntry(100), nil
	}, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, st.puts)
}

func TestUpdate_RetriesExhausted(t *testing.T) {
	st := &conflictStore{Store: memory.New(), conflicts: 100}
	v := &validate.Validator{}
	ctx := context.Background()

	err := Update(ctx, st, v, "entry/sample/e1", "a@x.com", func(current document.Document) (document.Document, error) {
		return newEntry(100), nil
	}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrWriteConflict)
	// First attempt plus two retries.
	assert.Equal(t, 3, st.puts)
}

func TestUpdate_ValidationAbortsWithoutRetry(t *testing.T) {
	st := memory.New()
	v := &validate.Validator{}
	ctx := context.Background()

	calls := 0
	err := Update(ctx, st, v, "entry/sample/e1", "a@x.com", func(current document.Document) (document.Document, error) {
		calls++
		doc := newEntry(100)
		doc["$owners"] = []any{"not-an-email"}
		return doc, nil
	}, 5)

	var violation *validate.IntegrityViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, 1, calls)
}

func TestUpdate_ApplySeesACopy(t *testing.T) {
	st := memory.New()
	v := &validate.Validator{}
	ctx := context.Background()

	_, err := st.PutDocument(ctx, "entry/sample/e1", newEntry(100), 0)
	require.NoError(t, err)

	err = Update(ctx, st, v, "entry/sample/e1", "a@x.com", func(current document.Document) (document.Document, error) {
		// Mutating in place must not corrupt the previous-revision view
		// the validator compares against.
		current["$modificationDate"] = float64(150)
		return current, nil
	}, 0)
	require.NoError(t, err)

	got, _, err := st.GetDocument(ctx, "entry/sample/e1")
	require.NoError(t, err)
	mod, _ := got.ModificationDate()
	assert.Equal(t, int64(150), mod)
}

func TestDelete(t *testing.T) {
	st := memory.New()
	v := &validate.Validator{}
	ctx := context.Background()

	_, err := st.PutDocument(ctx, "entry/sample/e1", newEntry(100), 0)
	require.NoError(t, err)

	t.Run("anonymous rejected under strict policy", func(t *testing.T) {
		err := Delete(ctx, st, v, "entry/sample/e1", "", 0)
		var violation *validate.IntegrityViolation
		require.ErrorAs(t, err, &violation)
	})

	t.Run("deletes with principal", func(t *testing.T) {
		require.NoError(t, Delete(ctx, st, v, "entry/sample/e1", "a@x.com", 0))
		_, _, err := st.GetDocument(ctx, "entry/sample/e1")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("missing document", func(t *testing.T) {
		err := Delete(ctx, st, v, "entry/sample/e1", "a@x.com", 0)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
