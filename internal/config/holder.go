package config

import (
	"sync/atomic"
)

// Holder provides hot-reloadable access to the current Config. Readers call
// Get on every use; Reload swaps in a freshly loaded config atomically and
// keeps the old one when the new file fails validation.
type Holder struct {
	current  atomic.Pointer[Config]
	yamlPath string
}

// NewHolder wraps an already loaded config.
func NewHolder(cfg *Config, yamlPath string) *Holder {
	h := &Holder{yamlPath: yamlPath}
	h.current.Store(cfg)
	return h
}

// Get returns the current config snapshot.
func (h *Holder) Get() *Config {
	return h.current.Load()
}

// Reload re-runs the full load hierarchy against the original YAML path.
// On error the previous config stays active.
func (h *Holder) Reload() error {
	cfg, err := LoadFrom(h.yamlPath)
	if err != nil {
		return err
	}
	h.current.Store(cfg)
	return nil
}
