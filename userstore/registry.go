package userstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DialectorOpener returns a gorm.Dialector for a DSN.
type DialectorOpener = func(dsn string) gorm.Dialector

var (
	registryMu sync.RWMutex
	dialectors = make(map[string]DialectorOpener)
)

func init() {
	Register("sqlite", sqlite.Open)
	Register("postgres", postgres.Open)
}

// Register makes a dialector available to Open under name.
func Register(name string, opener DialectorOpener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	dialectors[name] = opener
}

// Drivers lists the registered dialector names.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(dialectors))
	for name := range dialectors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func lookupDialector(name string) (DialectorOpener, error) {
	registryMu.RLock()
	opener, ok := dialectors[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("userstore: unknown driver %q", name)
	}
	return opener, nil
}
