package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"bazaar/internal/apperror"

	"github.com/stretchr/testify/assert"
)

var errSample = apperror.New(apperror.KindConflict, "sample_conflict", "sample conflict")

func TestError_IsMatchesByCode(t *testing.T) {
	decorated := errSample.Withf("sample conflict on %s", "ORD1")
	wrapped := fmt.Errorf("outer: %w", decorated)

	assert.True(t, errors.Is(wrapped, errSample))
	assert.Equal(t, "sample conflict on ORD1", decorated.Error())
	assert.False(t, errors.Is(wrapped, apperror.New(apperror.KindConflict, "other", "other")))
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := errSample.Wrap(cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, errSample))
	assert.Contains(t, err.Error(), "disk full")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[apperror.Kind]int{
		apperror.KindValidation:   http.StatusBadRequest,
		apperror.KindUnauthorized: http.StatusUnauthorized,
		apperror.KindForbidden:    http.StatusForbidden,
		apperror.KindNotFound:     http.StatusNotFound,
		apperror.KindConflict:     http.StatusConflict,
		apperror.KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		err := apperror.New(kind, "code", "message")
		assert.Equal(t, status, apperror.HTTPStatus(err), kind.String())
	}

	assert.Equal(t, http.StatusInternalServerError, apperror.HTTPStatus(errors.New("plain")))
	assert.Equal(t, "internal_error", apperror.CodeOf(errors.New("plain")))
}
