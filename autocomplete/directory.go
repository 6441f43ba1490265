// Package autocomplete suggests city names from a fixed directory as the user types.
package autocomplete

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed cities.txt
var defaultCities string

// Directory is an ordered, immutable list of city names
type Directory struct {
	cities []string
}

// NewDirectory builds a directory from names, trimming whitespace and skipping blanks.
// Duplicates keep their first position.
func NewDirectory(names []string) Directory {
	seen := make(map[string]struct{}, len(names))
	cities := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cities = append(cities, name)
	}
	return Directory{cities: cities}
}

// DefaultDirectory returns the built-in city list
func DefaultDirectory() Directory {
	dir, err := ReadDirectory(strings.NewReader(defaultCities))
	if err != nil {
		// the embedded list is read from memory
		panic(fmt.Sprintf("autocomplete: read embedded cities: %v", err))
	}
	return dir
}

// LoadDirectory reads a directory file with one city per line; lines starting with
// '#' are comments.
func LoadDirectory(path string) (Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return Directory{}, fmt.Errorf("open cities file: %w", err)
	}
	defer f.Close()

	dir, err := ReadDirectory(f)
	if err != nil {
		return Directory{}, fmt.Errorf("read cities file %s: %w", path, err)
	}
	return dir, nil
}

// ReadDirectory reads a directory in the LoadDirectory format from r
func ReadDirectory(r io.Reader) (Directory, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return Directory{}, err
	}
	return NewDirectory(names), nil
}

// Len returns the number of cities
func (d Directory) Len() int {
	return len(d.cities)
}

// Cities returns a copy of the names in directory order
func (d Directory) Cities() []string {
	out := make([]string, len(d.cities))
	copy(out, d.cities)
	return out
}
