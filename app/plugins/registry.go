package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/powermatch/config"
	"github.com/kilianp07/powermatch/core/runlog"
)

// RunStoreFactory builds a run store from the store configuration.
type RunStoreFactory func(cfg config.StoreConfig) (runlog.Store, error)

var RunStores = map[string]RunStoreFactory{}

func RegisterRunStore(name string, f RunStoreFactory) { RunStores[name] = f }

// OpenRunStore builds the store selected by cfg.Backend.
func OpenRunStore(cfg config.StoreConfig) (runlog.Store, error) {
	f, ok := RunStores[cfg.Backend]
	if !ok {
		names := make([]string, 0, len(RunStores))
		for n := range RunStores {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown run store %q (known: %v)", cfg.Backend, names)
	}
	return f(cfg)
}
