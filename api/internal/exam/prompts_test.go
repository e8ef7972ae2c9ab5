package exam

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPromptsEmbeddedDefaults(t *testing.T) {
	p := LoadPrompts("")
	assert.NotEmpty(t, p.Tutor)
	assert.NotEmpty(t, p.Auditor)
	assert.NotEmpty(t, p.Judge)
	// The auditor contract the parser depends on.
	assert.Contains(t, p.Auditor, "JSON array")
}

func TestLoadPromptsFileOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tutor.system.txt"), []byte("custom tutor policy\n"), 0o644))

	p := LoadPrompts(dir)
	assert.Equal(t, "custom tutor policy", p.Tutor)
	// Untouched names keep the embedded text.
	assert.Equal(t, LoadPrompts("").Judge, p.Judge)
}

func TestLoadPromptsIgnoresEmptyOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "judge.system.txt"), []byte("   \n"), 0o644))
	assert.Equal(t, LoadPrompts("").Judge, LoadPrompts(dir).Judge)
}
