// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg, t.TempDir()))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["hawkeye_system_memory_bytes"])
	assert.True(t, names["hawkeye_system_disk_space_bytes"])
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg, ""))
	assert.Error(t, Register(reg, ""))
}
