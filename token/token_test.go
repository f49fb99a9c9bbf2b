package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoskresensky/docvault/document"
	"github.com/avoskresensky/docvault/validate"
)

var secret = []byte("test-secret")

func TestNew(t *testing.T) {
	now := time.Unix(1000, 0)
	doc, err := New("e1", "a@x.com", []string{"read"}, now)
	require.NoError(t, err)

	assert.Equal(t, document.TypeToken, doc.Type())
	assert.Equal(t, document.TypeEntry, doc.Kind())
	assert.Equal(t, "a@x.com", doc.Owner())
	assert.Equal(t, []string{"read"}, doc.Rights())
	assert.NotEmpty(t, doc.UUID())

	created, ok := doc.CreationDate()
	require.True(t, ok)
	assert.Equal(t, now.UnixMilli(), created)

	// Two tokens never share a uuid.
	other, err := New("e1", "a@x.com", []string{"read"}, now)
	require.NoError(t, err)
	assert.NotEqual(t, doc.UUID(), other.UUID())
}

func TestNew_RejectsInvalidOwners(t *testing.T) {
	for _, owner := range []string{"anonymous", "anyuser", "lab1", ""} {
		_, err := New("e1", owner, []string{"read"}, time.Now())
		assert.Error(t, err, "owner %q", owner)
	}
}

func TestNew_PassesValidation(t *testing.T) {
	doc, err := New([]any{"a", "b"}, "a@x.com", nil, time.Now())
	require.NoError(t, err)

	v := &validate.Validator{}
	assert.NoError(t, v.ValidateWrite(doc, nil, "a@x.com"))

	// Any subsequent revision is an immutability violation.
	var violation *validate.IntegrityViolation
	err = v.ValidateWrite(doc, doc, "a@x.com")
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, validate.RuleTokenImmut, violation.Rule)
}

func TestSignVerify(t *testing.T) {
	doc, err := New("e1", "a@x.com", []string{"read", "write"}, time.Now())
	require.NoError(t, err)

	signed, err := Sign(doc, secret, time.Minute)
	require.NoError(t, err)

	claims, err := Verify(signed, secret)
	require.NoError(t, err)
	assert.Equal(t, doc.UUID(), claims.TokenID)
	assert.Equal(t, "a@x.com", claims.Owner)
	assert.Equal(t, []string{"read", "write"}, claims.Rights)
}

func TestVerify_Rejects(t *testing.T) {
	doc, err := New("e1", "a@x.com", []string{"read"}, time.Now())
	require.NoError(t, err)

	signed, err := Sign(doc, secret, time.Minute)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := Verify(signed, []byte("other-secret"))
		assert.Error(t, err)
	})

	t.Run("tampered payload", func(t *testing.T) {
		_, err := Verify(signed+"x", secret)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := Sign(doc, secret, -time.Minute)
		require.NoError(t, err)
		_, err = Verify(expired, secret)
		assert.Error(t, err)
	})
}

func TestSign_RequiresTokenDocument(t *testing.T) {
	_, err := Sign(document.Document{"$type": "entry"}, secret, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
