package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "order %d not found", 42)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "order 42 not found", MessageOf(err))

	// kind survives fmt.Errorf wrapping
	wrapped := fmt.Errorf("resolving products: %w", err)
	assert.Equal(t, KindNotFound, KindOf(wrapped))

	// foreign errors count as internal
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindGateway, cause, "charging order %d", 7)

	assert.Equal(t, KindGateway, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "gateway")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithFieldLastWins(t *testing.T) {
	err := New(KindValidation, "invalid request").
		WithField("address", "first message").
		WithField("quantity", "must be positive").
		WithField("address", "second message")

	fields := FieldsOf(err)
	assert.Equal(t, "second message", fields["address"])
	assert.Equal(t, "must be positive", fields["quantity"])
	assert.Len(t, fields, 2)
}

func TestIs(t *testing.T) {
	err := New(KindForbidden, "not yours")
	assert.True(t, Is(err, KindForbidden))
	assert.False(t, Is(err, KindNotFound))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "internal", KindInternal.String())
	assert.Equal(t, "unsupported_payment_method", KindUnsupportedPaymentMethod.String())
}
