package plugins

import (
	"github.com/kilianp07/powermatch/config"
	"github.com/kilianp07/powermatch/core/runlog"
)

func init() {
	RegisterRunStore("jsonl", func(cfg config.StoreConfig) (runlog.Store, error) {
		return runlog.NewJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	})
	RegisterRunStore("sqlite", func(cfg config.StoreConfig) (runlog.Store, error) {
		return runlog.NewSQLiteStore(cfg.Path)
	})
}
