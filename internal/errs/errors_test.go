package errs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSetsKindAndMessage(t *testing.T) {
	err := New(InvalidPin, "invalid PIN")
	require.Equal(t, InvalidPin, err.Kind)
	require.Equal(t, "invalid PIN", err.Text())
	require.Equal(t, string(InvalidPin), err.Code())
}

func TestWrapPreservesCauseAndUnwraps(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(IO, cause)
	require.Equal(t, IO, err.Kind)
	require.ErrorIs(t, err, cause)
}

func TestWrapfFormatsMessage(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Wrapf(Storage, cause, "failed after %d attempts", 3)
	require.Equal(t, "failed after 3 attempts", err.Message)
}

func TestAsMatchesKindThroughWrapping(t *testing.T) {
	inner := New(VaultLocked, "vault is not open")
	outer := fmt.Errorf("wrapping: %w", inner)
	require.True(t, As(outer, VaultLocked))
	require.False(t, As(outer, InvalidPin))
}

func TestAsReturnsFalseForPlainError(t *testing.T) {
	require.False(t, As(fmt.Errorf("plain"), IO))
}
