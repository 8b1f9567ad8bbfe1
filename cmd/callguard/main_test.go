package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunValidateValidBundle(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"callguard", "validate", "--bundle", "../../pkg/policy/testdata/valid_bundle.yaml"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "valid")
}

func TestRunValidateInvalidBundle(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"callguard", "validate", "--bundle", "../../pkg/policy/testdata/invalid_bad_api_version.yaml"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestRunDemoWithoutBundle(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"callguard", "demo"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "executed")
}

func TestRunUsageWithNoArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"callguard"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.True(t, strings.Contains(stdout.String(), "CallGuard"))
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"callguard", "bogus"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
}
