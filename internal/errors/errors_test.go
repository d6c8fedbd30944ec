package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Inference("discount", fmt.Errorf("feature shape 3, want 11"))

	assert.Equal(t, `[INFERENCE_ERROR] model "discount" failed inference: feature shape 3, want 11`, err.Error())
	assert.Equal(t, "discount", err.Context["model"])
}

func TestIsTypeFollowsWrapChain(t *testing.T) {
	base := Validation("unknown service_category \"plumbing\"")
	wrapped := fmt.Errorf("encode: %w", base)

	assert.True(t, IsType(wrapped, TypeValidation))
	assert.False(t, IsType(wrapped, TypeInference))
	assert.Equal(t, TypeValidation, TypeOf(wrapped))
}

func TestTypeOfForeignErrorIsInternal(t *testing.T) {
	assert.Equal(t, TypeInternal, TypeOf(fmt.Errorf("boom")))
	assert.False(t, IsType(nil, TypeValidation))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{PolicyViolation("jurisdiction", "unknown jurisdiction"), http.StatusUnprocessableEntity},
		{ModelUnavailable("tax_rate", fmt.Errorf("missing file")), http.StatusServiceUnavailable},
		{NotFound("model", "x"), http.StatusNotFound},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", PolicyViolation("tax_rate", "no rate"))

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "tax_rate", e.Context["rule"])
}
