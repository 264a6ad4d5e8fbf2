// SPDX-License-Identifier: MIT

// Package fonts verifies the bundled font directory that the encoder
// resolves glyphs from. Burns never touch system fonts, so a missing
// bundle must fail loudly at startup instead of silently falling back to
// whatever the host has installed.
package fonts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/feldrik/lyricburn/internal/ass"
)

// ErrBundleInvalid reports a font bundle that cannot serve every
// whitelisted family.
var ErrBundleInvalid = errors.New("font bundle invalid")

var fontExtensions = map[string]bool{
	".ttf": true,
	".otf": true,
	".ttc": true,
}

// FamilyDir returns the bundle subdirectory for a font family. Directory
// names are the family name with spaces removed ("Times New Roman" lives
// in TimesNewRoman/).
func FamilyDir(root, family string) string {
	return filepath.Join(root, strings.ReplaceAll(family, " ", ""))
}

// Verify checks that root holds at least one font file for every
// selectable family. It returns ErrBundleInvalid naming every family that
// is missing or empty.
func Verify(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBundleInvalid, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrBundleInvalid, root)
	}

	var missing []string
	for _, family := range ass.FontFamilies {
		if !hasFontFile(FamilyDir(root, family)) {
			missing = append(missing, family)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no font files for %s", ErrBundleInvalid, strings.Join(missing, ", "))
	}
	return nil
}

func hasFontFile(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if fontExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			return true
		}
	}
	return false
}
