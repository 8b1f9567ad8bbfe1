package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("CALLGUARD_BUNDLE")
	os.Unsetenv("CALLGUARD_MODE")
	os.Unsetenv("CALLGUARD_AUDIT_SINK_URL")

	c := Load()
	assert.Equal(t, "", c.BundlePath)
	assert.Equal(t, "enforce", c.Mode)
	assert.Equal(t, "", c.AuditSinkURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CALLGUARD_BUNDLE", "/etc/callguard/policy.yaml")
	t.Setenv("CALLGUARD_MODE", "observe")

	c := Load()
	assert.Equal(t, "/etc/callguard/policy.yaml", c.BundlePath)
	assert.Equal(t, "observe", c.Mode)
}
