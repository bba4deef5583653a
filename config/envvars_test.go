package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEnvKeyPlainSegments(t *testing.T) {
	assert.Equal(t, []string{"api", "timeout"}, splitEnvKey("API_TIMEOUT", nil))
	assert.Equal(t, []string{"foo"}, splitEnvKey("FOO", nil))
	assert.Equal(t, []string{"a", "b", "c"}, splitEnvKey("A_B_C", map[string]interface{}{}))
}

func TestSplitEnvKeyPrefersKnownKeysWithUnderscores(t *testing.T) {
	known := map[string]interface{}{
		"api": map[string]interface{}{
			"base_url": "https://a",
			"timeout":  30,
		},
	}
	// "base_url" exists under "api", so the underscore between BASE and URL is
	// part of the key, not a separator.
	assert.Equal(t, []string{"api", "base_url"}, splitEnvKey("API_BASE_URL", known))
	assert.Equal(t, []string{"api", "timeout"}, splitEnvKey("API_TIMEOUT", known))
}

func TestSplitEnvKeyGreedyMatchAtEachLevel(t *testing.T) {
	known := map[string]interface{}{
		"rate_limit": map[string]interface{}{
			"burst_size": 50,
		},
	}
	assert.Equal(t, []string{"rate_limit", "burst_size"}, splitEnvKey("RATE_LIMIT_BURST_SIZE", known))
}

func TestSplitEnvKeyUnknownTailFallsBackToPlainSplit(t *testing.T) {
	known := map[string]interface{}{
		"api": map[string]interface{}{"timeout": 30},
	}
	assert.Equal(t, []string{"api", "retry", "count"}, splitEnvKey("API_RETRY_COUNT", known))
}

func TestSplitEnvKeyLowercasesSuffix(t *testing.T) {
	assert.Equal(t, []string{"web", "headless"}, splitEnvKey("WEB_HEADLESS", nil))
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := map[string]interface{}{
		"api": map[string]interface{}{"base_url": "https://a", "timeout": 30},
	}
	environ := []string{
		"TEST_API_BASE_URL=https://b",
		"TEST_NEW_SECTION_VALUE=x",
		"UNRELATED=ignored",
		"TEST_=ignored-empty-suffix",
		"malformed-no-equals",
	}
	applyEnvOverrides(cfg, "TEST_", environ)

	api := cfg["api"].(map[string]interface{})
	assert.Equal(t, "https://b", api["base_url"])
	assert.Equal(t, 30, api["timeout"])
	section := cfg["new"].(map[string]interface{})["section"].(map[string]interface{})
	assert.Equal(t, "x", section["value"])
}

func TestApplyEnvOverridesIsCaseSensitiveOnPrefix(t *testing.T) {
	cfg := map[string]interface{}{}
	applyEnvOverrides(cfg, "TEST_", []string{"test_api_timeout=9"})
	assert.Empty(t, cfg)
}

func TestSetPathReplacesScalarInTheWay(t *testing.T) {
	cfg := map[string]interface{}{"api": "scalar"}
	setPath(cfg, []string{"api", "timeout"}, "5")
	assert.Equal(t, "5", cfg["api"].(map[string]interface{})["timeout"])
}
