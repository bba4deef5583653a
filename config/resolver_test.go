package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

func TestResolveBaseOnly(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `
api:
  base_url: "https://a"
  timeout: 30
web:
  headless: true
`)
	cfg, err := NewResolver(dir, "").Resolve("test")
	require.NoError(t, err)

	assert.Equal(t, "https://a", cfg.Get("api.base_url", nil))
	assert.Equal(t, 30, cfg.GetInt("api.timeout", 0))
	assert.Equal(t, true, cfg.GetBool("web.headless", false))
}

func TestResolveMissingBaseIsFatal(t *testing.T) {
	_, err := NewResolver(t.TempDir(), "").Resolve("test")
	require.Error(t, err)
}

func TestResolveBaseMustBeMapping(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `[1, 2, 3]`)
	_, err := NewResolver(dir, "").Resolve("")
	require.Error(t, err)
}

func TestResolveMissingOverlayIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30}`)
	cfg, err := NewResolver(dir, "").Resolve("nosuchenvironment")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.GetInt("api.timeout", 0))
}

func TestOverlayScalarWinsOverBase(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30, base_url: "https://a"}`)
	writeConfigFile(t, dir, "test.yaml", `api: {timeout: 5}`)

	cfg, err := NewResolver(dir, "").Resolve("test")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.GetInt("api.timeout", 0))
	assert.Equal(t, "https://a", cfg.GetString("api.base_url", ""), "keys absent from the overlay keep the base value")
}

func TestOverlayMergesNestedMappingsRecursively(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `
performance:
  thresholds:
    p95_ms: 500
    error_ratio: 0.01
  users: 10
`)
	writeConfigFile(t, dir, "staging.yaml", `
performance:
  thresholds:
    p95_ms: 900
`)
	cfg, err := NewResolver(dir, "").Resolve("staging")
	require.NoError(t, err)

	// overlapping sub-key takes the overlay value, siblings survive (depth 2)
	assert.Equal(t, 900, cfg.GetInt("performance.thresholds.p95_ms", 0))
	assert.Equal(t, 0.01, cfg.GetFloat("performance.thresholds.error_ratio", 0))
	assert.Equal(t, 10, cfg.GetInt("performance.users", 0))
}

func TestOverlayListReplacesBaseListEntirely(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {symbols: [BTC, ETH, XRP]}`)
	writeConfigFile(t, dir, "test.yaml", `api: {symbols: [DOGE]}`)

	cfg, err := NewResolver(dir, "").Resolve("test")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"DOGE"}, cfg.Get("api.symbols", nil))
}

func TestEnvironmentVariableOverridesEverything(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30, base_url: "https://a"}`)
	writeConfigFile(t, dir, "test.yaml", `api: {timeout: 5}`)
	t.Setenv("TEST_API_BASE_URL", "https://b")

	cfg, err := NewResolver(dir, "").Resolve("test")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.GetInt("api.timeout", 0))
	assert.Equal(t, "https://b", cfg.Get("api.base_url", nil))
}

func TestEnvironmentValueIsAlwaysARawString(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30}`)
	t.Setenv("TEST_API_TIMEOUT", "45")

	cfg, err := NewResolver(dir, "").Resolve("")
	require.NoError(t, err)

	assert.Equal(t, "45", cfg.Get("api.timeout", nil), "no type coercion on override values")
	assert.Equal(t, 45, cfg.GetInt("api.timeout", 0), "typed accessor parses the string")
}

func TestEnvironmentVariableCreatesIntermediateMappings(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30}`)
	t.Setenv("TEST_NOTIFY_WEBHOOK_URL", "https://hooks.example.com/x")

	cfg, err := NewResolver(dir, "").Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/x", cfg.Get("notify.webhook.url", nil))
}

func TestCustomPrefix(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30}`)
	t.Setenv("CRYPTOQA_API_TIMEOUT", "9")
	t.Setenv("TEST_API_TIMEOUT", "99")

	cfg, err := NewResolver(dir, "CRYPTOQA_").Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "9", cfg.Get("api.timeout", nil))
}

func TestGetReturnsDefaultForMissingPaths(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30}`)
	cfg, err := NewResolver(dir, "").Resolve("")
	require.NoError(t, err)

	assert.Equal(t, "fallback", cfg.Get("no.such.key", "fallback"))
	assert.Equal(t, "fallback", cfg.Get("api.timeout.deeper", "fallback"),
		"descending through a scalar yields the default")
	assert.Nil(t, cfg.Get("absent", nil))
	assert.Equal(t, 7, cfg.GetInt("web.headless", 7))
}

func TestResolveIsCachedPerEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30}`)
	r := NewResolver(dir, "")

	first, err := r.Resolve("test")
	require.NoError(t, err)

	// mutate every source; the cached result must be unaffected
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 1}`)
	writeConfigFile(t, dir, "test.yaml", `api: {timeout: 2}`)
	t.Setenv("TEST_API_TIMEOUT", "3")

	second, err := r.Resolve("test")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 30, second.GetInt("api.timeout", 0))
}

func TestResolveDistinctEnvironmentsAreIndependent(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `api: {timeout: 30}`)
	writeConfigFile(t, dir, "test.yaml", `api: {timeout: 5}`)
	r := NewResolver(dir, "")

	testCfg, err := r.Resolve("test")
	require.NoError(t, err)
	defaultCfg, err := r.Resolve("")
	require.NoError(t, err)

	assert.Equal(t, 5, testCfg.GetInt("api.timeout", 0))
	assert.Equal(t, 30, defaultCfg.GetInt("api.timeout", 0))
}

func TestJSONConfigFilesAreAccepted(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.json", `{"api": {"timeout": 30}}`)
	cfg, err := NewResolver(dir, "").Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.GetInt("api.timeout", 0))
}

func TestTypedAccessors(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "default.yaml", `
api:
  timeout: "45s"
performance:
  duration: 60
  spawn_rate: 2.5
web:
  headless: "false"
`)
	cfg, err := NewResolver(dir, "").Resolve("")
	require.NoError(t, err)

	assert.Equal(t, 45e9, float64(cfg.GetDuration("api.timeout", 0)))
	assert.Equal(t, 60e9, float64(cfg.GetDuration("performance.duration", 0)), "bare numbers are seconds")
	assert.Equal(t, 2.5, cfg.GetFloat("performance.spawn_rate", 0))
	assert.False(t, cfg.GetBool("web.headless", true))
	assert.Equal(t, "x", cfg.GetString("performance.duration", "x"), "GetString does not stringify numbers")
}
