package dependency_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcelsud/webhook-guard/dependency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDepsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dependencies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("success - full configuration", func(t *testing.T) {
		path := writeDepsFile(t, `
dependencies:
  - name: payments
    timeout: 10s
    max_retries: 3
    retry_base_delay: 1s
    retry_max_delay: 30s
    failure_threshold: 5
    reset_timeout: 30s
    half_open_requests: 2
    dedup_ttl: 5s
`)

		loader := dependency.NewLoader()
		require.NoError(t, loader.Load(path))

		dep, err := loader.Get("payments")
		require.NoError(t, err)
		assert.Equal(t, "payments", dep.Name)
		assert.Equal(t, 10*time.Second, dep.Timeout)
		assert.Equal(t, 3, dep.MaxRetries)
		assert.Equal(t, time.Second, dep.RetryBaseDelay)
		assert.Equal(t, 30*time.Second, dep.RetryMaxDelay)
		assert.Equal(t, 5, dep.FailureThreshold)
		assert.Equal(t, 30*time.Second, dep.ResetTimeout)
		assert.Equal(t, 2, dep.HalfOpenRequests)
		assert.Equal(t, 5*time.Second, dep.DedupTTL)
	})

	t.Run("success - optional settings default", func(t *testing.T) {
		path := writeDepsFile(t, `
dependencies:
  - name: shipping
`)

		loader := dependency.NewLoader()
		require.NoError(t, loader.Load(path))

		dep, err := loader.Get("shipping")
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, dep.Timeout)
		assert.Equal(t, 0, dep.MaxRetries)
		assert.Equal(t, 5, dep.FailureThreshold)
		assert.Equal(t, 30*time.Second, dep.ResetTimeout)
		assert.Equal(t, 2, dep.HalfOpenRequests)
	})

	t.Run("failure - file not found", func(t *testing.T) {
		loader := dependency.NewLoader()
		err := loader.Load("/nonexistent/dependencies.yaml")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading dependencies file")
	})

	t.Run("failure - malformed yaml", func(t *testing.T) {
		path := writeDepsFile(t, "dependencies: [not: valid")

		loader := dependency.NewLoader()
		err := loader.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing dependencies YAML")
	})

	t.Run("failure - unparseable duration", func(t *testing.T) {
		path := writeDepsFile(t, `
dependencies:
  - name: payments
    timeout: ten seconds
`)

		loader := dependency.NewLoader()
		err := loader.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing duration")
	})

	t.Run("failure - duplicate dependency name", func(t *testing.T) {
		path := writeDepsFile(t, `
dependencies:
  - name: payments
  - name: payments
`)

		loader := dependency.NewLoader()
		err := loader.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate dependency name: payments")
	})

	t.Run("failure - missing name", func(t *testing.T) {
		path := writeDepsFile(t, `
dependencies:
  - timeout: 10s
`)

		loader := dependency.NewLoader()
		err := loader.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})

	t.Run("failure - base delay exceeds max delay", func(t *testing.T) {
		path := writeDepsFile(t, `
dependencies:
  - name: payments
    retry_base_delay: 10s
    retry_max_delay: 1s
`)

		loader := dependency.NewLoader()
		err := loader.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry_base_delay exceeds retry_max_delay")
	})
}

func TestGet(t *testing.T) {
	t.Run("failure - unknown dependency", func(t *testing.T) {
		loader := dependency.NewLoader()

		_, err := loader.Get("unknown")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency not found: unknown")
	})
}

func TestList(t *testing.T) {
	t.Run("returns dependencies in file order", func(t *testing.T) {
		path := writeDepsFile(t, `
dependencies:
  - name: payments
  - name: shipping
  - name: tax
`)

		loader := dependency.NewLoader()
		require.NoError(t, loader.Load(path))

		deps := loader.List()
		require.Len(t, deps, 3)
		assert.Equal(t, "payments", deps[0].Name)
		assert.Equal(t, "shipping", deps[1].Name)
		assert.Equal(t, "tax", deps[2].Name)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *dependency.Dependency {
		return &dependency.Dependency{
			Name:             "payments",
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			HalfOpenRequests: 2,
		}
	}

	t.Run("success - minimal valid dependency", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("failure - negative retries", func(t *testing.T) {
		dep := valid()
		dep.MaxRetries = -1

		assert.Error(t, dep.Validate())
	})

	t.Run("failure - zero half open requests", func(t *testing.T) {
		dep := valid()
		dep.HalfOpenRequests = 0

		assert.Error(t, dep.Validate())
	})
}
