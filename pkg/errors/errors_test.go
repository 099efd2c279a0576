package errors_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ninja-pay/opsdash/pkg/errors"
)

func TestErrorMessage(t *testing.T) {
	err := errors.New("getPayments", errors.KindTransport, fmt.Errorf("status 502"))
	assert.Equal(t, "opsdash: getPayments failed: status 502", err.Error())

	detailed := errors.NewWithDetail("getPayments", errors.KindTransport, fmt.Errorf("status 502"), "upstream down")
	assert.Equal(t, "opsdash: getPayments failed: upstream down", detailed.Error())
}

func TestErrorUnwrapAndIs(t *testing.T) {
	err := errors.New("login", errors.KindAuth, errors.ErrInvalidCredentials)

	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, errors.ErrUnauthorized)
	assert.Equal(t, errors.ErrInvalidCredentials, err.Unwrap())
}

func TestKindOfAndDetail(t *testing.T) {
	err := errors.NewWithDetail("getMetrics", errors.KindDecode, errors.ErrDecode, "bad envelope")

	assert.Equal(t, errors.KindDecode, errors.KindOf(err))
	assert.Equal(t, "bad envelope", errors.Detail(err))

	// Foreign errors classify as nothing.
	assert.Equal(t, errors.Kind(""), errors.KindOf(io.EOF))
	assert.Empty(t, errors.Detail(io.EOF))
}

func TestWrappedClassification(t *testing.T) {
	inner := errors.New("getPayments", errors.KindTransport, fmt.Errorf("status 502"))
	wrapped := fmt.Errorf("refresh: %w", inner)

	assert.True(t, errors.IsTransport(wrapped))
	assert.False(t, errors.IsAuth(wrapped))
}

func TestPredicates(t *testing.T) {
	assert.True(t, errors.IsAuth(errors.New("x", errors.KindAuth, errors.ErrUnauthorized)))
	assert.True(t, errors.IsAuth(fmt.Errorf("wrap: %w", errors.ErrUnauthorized)))
	assert.True(t, errors.IsDecode(errors.ErrDecode))
	assert.True(t, errors.IsValidation(errors.New("x", errors.KindValidation, errors.ErrInvalidAmount)))
	assert.False(t, errors.IsValidation(io.EOF))
}
