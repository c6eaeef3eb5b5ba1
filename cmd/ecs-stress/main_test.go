package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWritesReport(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-duration", "20ms", "-entities", "20", "-script-every", "0"}, &out))
	assert.Contains(t, out.String(), "--- End of Report ---")
}

func TestRunReturnsErrors(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-duration", "20ms", "-profile", "heap"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile mode "heap"`)
	assert.Empty(t, out.String(), "no report after a failed start")

	assert.Error(t, run([]string{"-config", "missing.toml"}, &out))
	assert.Error(t, run([]string{"-bogus"}, &out))
}
