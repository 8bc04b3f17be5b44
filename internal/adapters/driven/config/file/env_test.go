package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_MergesInOrder(t *testing.T) {
	global := t.TempDir()
	local := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(global, ".env"), []byte("OPENAI_API_KEY=global\nGEMINI_API_KEY=g\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(local, ".env"), []byte("OPENAI_API_KEY=local\n"), 0600))

	env, err := LoadEnv(global, "", local, filepath.Join(t.TempDir(), "absent"))

	require.NoError(t, err)
	assert.Equal(t, "local", env["OPENAI_API_KEY"])
	assert.Equal(t, "g", env["GEMINI_API_KEY"])
}

func TestLoadEnv_DoesNotTouchEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUTOREVIEW_ENV_TEST=1\n"), 0600))

	_, err := LoadEnv(dir)

	require.NoError(t, err)
	_, set := os.LookupEnv("AUTOREVIEW_ENV_TEST")
	assert.False(t, set)
}
