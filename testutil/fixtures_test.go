package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Test that the reference lab is structurally valid.
func TestNewLabModel(t *testing.T) {
	model := NewLabModel(t)

	require.NoError(t, model.ValidateStructure())
	require.Len(t, model.Devices(), 7)
	require.Len(t, model.Links(), 3)
	require.Len(t, model.Routers(), 2)
}

// Test that the two router lab is structurally valid.
func TestNewTwoRouterModel(t *testing.T) {
	model := NewTwoRouterModel(t)

	require.NoError(t, model.ValidateStructure())
	require.EqualValues(t, 200, model.Device("r2").Routing.BGP.ASN)
}
