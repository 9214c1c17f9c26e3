//go:build !windows

package cominspect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActivationUnsupported(t *testing.T) {
	_, err := GetActiveInstance("Excel.Application")
	require.ErrorIs(t, err, ErrUnsupported)
	require.ErrorIs(t, Initialize(), ErrUnsupported)
}
