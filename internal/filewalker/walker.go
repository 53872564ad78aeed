// Package filewalker discovers and parses translation files under a root
// directory.
package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"renpy-translator/internal/script"

	"github.com/rs/zerolog/log"
)

// ScriptExtension is the fixed extension of extracted translation files.
const ScriptExtension = ".rpy"

// Walk parses every translation file under root, in walk order. A parse
// failure in any file aborts the walk: silently skipping a file would drop
// its dialogue from translation.
func Walk(root string) ([]*script.File, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve input root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat input root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input root is not a directory: %s", root)
	}

	var files []*script.File
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.ToLower(filepath.Ext(path)) != ScriptExtension {
			return nil
		}

		parsed, err := script.ParseFile(path)
		if err != nil {
			return err
		}
		files = append(files, parsed)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input directory: %w", err)
	}

	log.Info().Int("files", len(files)).Str("root", root).Msg("Parsed translation files")
	return files, nil
}
