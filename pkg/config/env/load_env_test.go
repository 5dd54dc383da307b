package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	t.Run("loads file from ENV_PATH", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("PW_TEST_VALUE=from-file\n"), 0o600))
		t.Setenv("ENV_PATH", path)
		t.Setenv("PW_TEST_VALUE", "")
		require.NoError(t, os.Unsetenv("PW_TEST_VALUE"))

		err := LoadDotEnv("", "ignored")

		require.NoError(t, err)
		assert.Equal(t, "from-file", os.Getenv("PW_TEST_VALUE"))
	})

	t.Run("missing file is fine outside local mode", func(t *testing.T) {
		t.Setenv("ENV_PATH", "")

		assert.NoError(t, LoadDotEnv("prod", filepath.Join(t.TempDir(), "nope.env")))
		assert.Error(t, LoadDotEnv("local", filepath.Join(t.TempDir(), "nope.env")))
	})
}
