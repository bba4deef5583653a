package qatest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJUnitTestLoggerWritesSuitesPerTopLevelScope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	logger := NewJUnitTestLogger(path, "staging", RegexFilters{})

	results := Run(TestConfiguration{TestLogger: logger}, func(t *T) {
		t.Run("api", func(t *T) {
			t.Run("ok", func(t *T) {})
			t.Run("bad", func(t *T) {
				t.Errorf("expected 10 rows, got 3")
			})
		})
		t.Run("web", func(t *T) {
			t.Run("skipped one", func(t *T) {
				t.SkipWithReason("no browser")
			})
		})
	})
	require.NoError(t, logger.EndLog(results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	xml := string(data)

	assert.Contains(t, xml, `name="market data QA: api"`)
	assert.Contains(t, xml, `name="market data QA: web"`)
	assert.Contains(t, xml, `name="api/bad"`)
	assert.Contains(t, xml, "expected 10 rows, got 3")
	assert.Contains(t, xml, `<skipped message="no browser">`)
	assert.Contains(t, xml, `name="tests.environment" value="staging"`)
}
