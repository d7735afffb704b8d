package kkcard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryExposesKnownVariants(t *testing.T) {
	reg := Registry()
	require.NotEmpty(t, reg)
	names := make(map[string]bool, len(reg))
	for _, d := range reg {
		names[d.Name] = true
	}
	require.True(t, names["Koikatu"])
	require.True(t, names["Honeycome"])
}
