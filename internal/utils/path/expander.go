// Package pathutils expands operator-supplied paths such as --log-file and --repository.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	homeShortcutConstant = "~"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves an environment variable.
type EnvironmentLookup func(name string) (string, bool)

// Expander resolves environment references and a leading ~ in paths.
type Expander struct {
	homeDirectoryProvider HomeDirectoryProvider
	environmentLookup     EnvironmentLookup

	homeDirectoryOnce sync.Once
	homeDirectory     string
}

// NewExpander constructs an Expander backed by the process environment.
func NewExpander() *Expander {
	return NewExpanderWithLookups(os.UserHomeDir, os.LookupEnv)
}

// NewExpanderWithLookups constructs an Expander with explicit lookups.
func NewExpanderWithLookups(homeDirectoryProvider HomeDirectoryProvider, environmentLookup EnvironmentLookup) *Expander {
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	return &Expander{homeDirectoryProvider: homeDirectoryProvider, environmentLookup: environmentLookup}
}

// Expand substitutes $NAME and ${NAME} references, then a leading ~ or ~/.
// Unset variables expand to the empty string; ~user forms are left untouched.
func (expander *Expander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}

	expandedPath := os.Expand(candidatePath, func(name string) string {
		value, _ := expander.environmentLookup(name)
		return value
	})

	if !strings.HasPrefix(expandedPath, homeShortcutConstant) {
		return expandedPath
	}
	remainder := strings.TrimPrefix(expandedPath, homeShortcutConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return expandedPath
	}

	homeDirectory := expander.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return expandedPath
	}
	return filepath.Join(homeDirectory, remainder)
}

func (expander *Expander) resolveHomeDirectory() string {
	expander.homeDirectoryOnce.Do(func() {
		homeDirectory, homeDirectoryError := expander.homeDirectoryProvider()
		if homeDirectoryError == nil {
			expander.homeDirectory = homeDirectory
		}
	})
	return expander.homeDirectory
}
