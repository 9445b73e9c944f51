package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CatalogEntry is one process template of the default catalog.
type CatalogEntry struct {
	Name  string `mapstructure:"name"`
	Color string `mapstructure:"color"`
	Order int    `mapstructure:"order"`
}

// ProcessCatalog is the content of process_catalog.yml.
type ProcessCatalog struct {
	LogLevel  string         `mapstructure:"log_level"`
	Templates []CatalogEntry `mapstructure:"templates"`
}

func DefaultProcessCatalog() ProcessCatalog {
	return ProcessCatalog{
		LogLevel: "info",
		Templates: []CatalogEntry{
			{Name: "New", Color: "#3B82F6", Order: 1},
			{Name: "Application Submitted", Color: "#6366F1", Order: 2},
			{Name: "Documents Requested", Color: "#F59E0B", Order: 3},
			{Name: "Conditional Offer", Color: "#8B5CF6", Order: 4},
			{Name: "Unconditional Offer", Color: "#10B981", Order: 5},
			{Name: "Deposit Paid", Color: "#14B8A6", Order: 6},
			{Name: "CAS Issued", Color: "#0EA5E9", Order: 7},
			{Name: "Visa Applied", Color: "#F97316", Order: 8},
			{Name: "Visa Granted", Color: "#22C55E", Order: 9},
			{Name: "Visa Refused", Color: "#EF4444", Order: 10},
			{Name: "Enrolled", Color: "#84CC16", Order: 11},
			{Name: "Withdrawn", Color: "#6B7280", Order: 12},
		},
	}
}

// ProcessCatalogHolder keeps the latest valid catalog. The file is watched
// and reloaded in place; invalid edits are ignored.
type ProcessCatalogHolder struct {
	current atomic.Value // holds ProcessCatalog

	mu        sync.Mutex
	listeners []func(ProcessCatalog)
}

func NewProcessCatalogHolder() (*ProcessCatalogHolder, error) {
	return newProcessCatalogHolder([]string{"/etc/pathway", "."}, true)
}

func newProcessCatalogHolder(paths []string, watch bool) (*ProcessCatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("process_catalog")
	v.SetConfigType("yml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("PATHWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg := DefaultProcessCatalog()
	if fileFound {
		loaded, err := decodeProcessCatalog(v)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if level := strings.TrimSpace(v.GetString("catalog.log_level")); level != "" {
		cfg.LogLevel = level
	}

	holder := &ProcessCatalogHolder{}
	holder.current.Store(cfg)

	if watch && fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeProcessCatalog(v)
			if err != nil {
				log.Printf("[process-catalog] invalid config ignored: %v", err)
				return
			}
			holder.store(updated)
			log.Printf("[process-catalog] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func decodeProcessCatalog(v *viper.Viper) (ProcessCatalog, error) {
	var cfg ProcessCatalog
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return ProcessCatalog{}, err
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if err := validateProcessCatalog(cfg); err != nil {
		return ProcessCatalog{}, err
	}
	return cfg, nil
}

func (h *ProcessCatalogHolder) Get() ProcessCatalog {
	return h.current.Load().(ProcessCatalog)
}

// OnChange registers fn to run after every successful reload.
func (h *ProcessCatalogHolder) OnChange(fn func(ProcessCatalog)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *ProcessCatalogHolder) store(cfg ProcessCatalog) {
	h.current.Store(cfg)

	h.mu.Lock()
	listeners := append([]func(ProcessCatalog){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
}

func validateProcessCatalog(cfg ProcessCatalog) error {
	if len(cfg.Templates) == 0 {
		return errors.New("catalog.templates cannot be empty")
	}
	seen := make(map[string]struct{}, len(cfg.Templates))
	for i, entry := range cfg.Templates {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return fmt.Errorf("catalog.templates[%d].name is required", i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("catalog.templates[%d].name %q is duplicated", i, name)
		}
		seen[name] = struct{}{}
		if entry.Order < 0 {
			return fmt.Errorf("catalog.templates[%d].order must be positive", i)
		}
	}
	return nil
}
