package docs

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed optimizers/*.md README.md
var docFS embed.FS

var ErrNotFound = errors.New("documentation not found")

// Lookup returns the markdown page for a canonical optimizer name.
func Lookup(optimizer string) ([]byte, bool) {
	data, err := docFS.ReadFile(path.Join("optimizers", optimizer+".md"))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Page is Lookup with a not-found error.
func Page(optimizer string) ([]byte, error) {
	data, ok := Lookup(optimizer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, optimizer)
	}
	return data, nil
}

// Readme returns the project overview page.
func Readme() []byte {
	data, err := docFS.ReadFile("README.md")
	if err != nil {
		panic(err)
	}
	return data
}

func Has(optimizer string) bool {
	_, ok := Lookup(optimizer)
	return ok
}

func Names() []string {
	entries, err := docFS.ReadDir("optimizers")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".md"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
