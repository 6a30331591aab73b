package presets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"rodigy/internal/model"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Defaults returns the bundled presets for a canonical optimizer name.
func Defaults(optimizer string) (*model.ConfigurationSet, bool, error) {
	data, err := defaultFS.ReadFile(path.Join("defaults", optimizer+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	set := model.NewConfigurationSet()
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, false, fmt.Errorf("default presets for %s: %w", optimizer, err)
	}
	return set, true, nil
}

// DefaultOptimizers lists optimizers that ship bundled presets.
func DefaultOptimizers() []string {
	entries, err := defaultFS.ReadDir("defaults")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
