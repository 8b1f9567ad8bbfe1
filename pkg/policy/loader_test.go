package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadValidBundle(t *testing.T) {
	cb, err := LoadBundleFile("testdata/valid_bundle.yaml")
	require.NoError(t, err)
	assert.Len(t, cb.Hash, 64)
	require.Len(t, cb.Bundle.Contracts, 3)
	assert.Equal(t, "no-etc-passwd", cb.Bundle.Contracts[0].ID)
	assert.Equal(t, "pre", cb.Bundle.Contracts[0].Type)
}

func TestLoadBundleHashIsDeterministicOverRawBytes(t *testing.T) {
	cb1, err := LoadBundleFile("testdata/valid_bundle.yaml")
	require.NoError(t, err)
	cb2, err := LoadBundleFile("testdata/valid_bundle.yaml")
	require.NoError(t, err)
	assert.Equal(t, cb1.Hash, cb2.Hash)
}

func TestLoadBundleRejectsBadAPIVersion(t *testing.T) {
	_, err := LoadBundleFile("testdata/invalid_bad_api_version.yaml")
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadBundleRejectsDuplicateIDs(t *testing.T) {
	_, err := LoadBundleFile("testdata/invalid_duplicate_ids.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate contract id")
}

func TestLoadBundleRejectsBadRegex(t *testing.T) {
	_, err := LoadBundleFile("testdata/invalid_bad_regex.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid regex")
}

func TestLoadBundleRejectsOutputTextInPreContract(t *testing.T) {
	_, err := LoadBundleFile("testdata/invalid_output_in_pre.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.text")
}

func TestLoadBundleRejectsSchemaViolation(t *testing.T) {
	_, err := LoadBundleFile("testdata/invalid_schema.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestLoadBundleRejectsOversizeFile(t *testing.T) {
	big := make([]byte, MaxBundleSize+1)
	_, err := LoadBundleBytes(big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum size")
}

func TestLoadBundleRejectsNonMapping(t *testing.T) {
	_, err := LoadBundleBytes([]byte("- just\n- a\n- list\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top-level mapping")
}
