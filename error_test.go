package mira_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/mira"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := mira.Errorf(mira.ENOTFOUND, "page %q not found", "tab-1")

	assert.Equal(t, mira.ENOTFOUND, mira.ErrorCode(err))
	assert.Equal(t, "page \"tab-1\" not found", mira.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, mira.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, mira.ErrorMessage(nil))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("listing: %w", mira.Errorf(mira.EMALFORMED, "not a JSON array"))

	assert.Equal(t, mira.EMALFORMED, mira.ErrorCode(err))
	assert.Equal(t, "not a JSON array", mira.ErrorMessage(err))
}

func TestErrorCode_ForeignError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, mira.EINTERNAL, mira.ErrorCode(err))
	assert.Equal(t, "Internal error", mira.ErrorMessage(err))
}
