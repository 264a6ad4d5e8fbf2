// SPDX-License-Identifier: MIT

package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feldrik/lyricburn/internal/ass"
)

func populateBundle(t *testing.T, families []string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range families {
		dir := FamilyDir(root, f)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "regular.ttf"), []byte("font"), 0o644))
	}
	return root
}

func TestFamilyDirNames(t *testing.T) {
	assert.Equal(t, filepath.Join("/fonts", "Inter"), FamilyDir("/fonts", "Inter"))
	assert.Equal(t, filepath.Join("/fonts", "TimesNewRoman"), FamilyDir("/fonts", "Times New Roman"))
}

// TestVerifyDocumentedLayout builds the bundle exactly as the deployment
// docs describe it, without going through FamilyDir.
func TestVerifyDocumentedLayout(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"Inter", "Arial", "Georgia", "Helvetica", "TimesNewRoman"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, "regular.ttf"), []byte("font"), 0o644))
	}
	assert.NoError(t, Verify(root))
}

func TestVerifyCompleteBundle(t *testing.T) {
	root := populateBundle(t, ass.FontFamilies)
	assert.NoError(t, Verify(root))
}

func TestVerifyNamesMissingFamilies(t *testing.T) {
	root := populateBundle(t, ass.FontFamilies[:2])
	err := Verify(root)
	require.ErrorIs(t, err, ErrBundleInvalid)
	for _, f := range ass.FontFamilies[2:] {
		assert.Contains(t, err.Error(), f)
	}
}

func TestVerifyRejectsEmptyFamilyDir(t *testing.T) {
	root := populateBundle(t, ass.FontFamilies)
	dir := FamilyDir(root, "Inter")
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.MkdirAll(dir, 0o755))

	err := Verify(root)
	require.ErrorIs(t, err, ErrBundleInvalid)
	assert.Contains(t, err.Error(), "Inter")
}

func TestVerifyIgnoresNonFontFiles(t *testing.T) {
	root := populateBundle(t, ass.FontFamilies)
	dir := FamilyDir(root, "Arial")
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0o644))

	err := Verify(root)
	require.ErrorIs(t, err, ErrBundleInvalid)
}

func TestVerifyMissingRoot(t *testing.T) {
	err := Verify(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, ErrBundleInvalid)
}
