package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFilesDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FILESTATION_TEST_A=from-file\nFILESTATION_TEST_B=from-file\n"), 0600))

	t.Setenv("FILESTATION_TEST_A", "from-env")
	t.Setenv("FILESTATION_TEST_B", "")
	require.NoError(t, os.Unsetenv("FILESTATION_TEST_B"))

	loaded := loadFiles([]string{envFile, envFile, filepath.Join(dir, "missing.env")})

	assert.Equal(t, []string{envFile}, loaded)
	assert.Equal(t, "from-env", os.Getenv("FILESTATION_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("FILESTATION_TEST_B"))
}
