package indicator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arijanluiken/tickscript/internal/tickscript"
)

// Script file extensions recognised by LoadDir.
const (
	TickScriptExt = ".tick"
	StarlarkExt   = ".star"
)

// LoadDir loads every TickScript and Starlark indicator in dir, in file
// name order. params are passed to every script. TickScript indicators are
// named after their study title, falling back to the file name.
func LoadDir(logger zerolog.Logger, engine *tickscript.Engine, dir string, params map[string]interface{}) ([]Indicator, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var loaded []Indicator
	for _, name := range names {
		path := filepath.Join(dir, name)
		ext := strings.ToLower(filepath.Ext(name))
		if ext != TickScriptExt && ext != StarlarkExt {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var ind Indicator
		switch ext {
		case TickScriptExt:
			program, err := engine.Compile(string(data))
			if err != nil {
				return nil, fmt.Errorf("failed to compile %s: %w", path, err)
			}
			title := program.Study.Title
			if title == "" {
				title = strings.TrimSuffix(name, filepath.Ext(name))
			}
			script, err := NewScriptIndicator(title, program, params)
			if err != nil {
				return nil, err
			}
			ind = script
		case StarlarkExt:
			script, err := NewStarlarkIndicator(logger, path, string(data), params)
			if err != nil {
				return nil, err
			}
			ind = script
		}

		logger.Debug().Str("file", path).Str("indicator", ind.Name()).Msg("Indicator script loaded")
		loaded = append(loaded, ind)
	}

	return loaded, nil
}
