package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/Daxiongmao87/termaite-go/internal/shared/filestore"
)

// AllowlistRepository is the small repository the "always allow" flow
// (spec.md §4.5, §9 DESIGN NOTE "Dynamic mutation of a static config")
// writes through: addAllowed + snapshot, backed by atomic file replace.
// Readers must re-snapshot after a write.
type AllowlistRepository struct {
	mu  sync.Mutex
	cfg *Config
}

// NewAllowlistRepository wraps cfg. If cfg was not loaded from a file
// (Path() == ""), AddAllowed mutates the in-memory map only.
func NewAllowlistRepository(cfg *Config) *AllowlistRepository {
	return &AllowlistRepository{cfg: cfg}
}

// Snapshot returns a copy of the current in-memory allowlist.
func (r *AllowlistRepository) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.cfg.Allowed))
	for k, v := range r.cfg.Allowed {
		out[k] = v
	}
	return out
}

// AddAllowed adds name/description to the in-memory allowlist and, if
// the Config was loaded from a file, persists the mutation atomically
// (write temp file, validate, rename) before returning. On any
// persistence failure the in-memory map is rolled back so callers can
// safely fall back to deny for this invocation (spec.md §4.5, §7).
func (r *AllowlistRepository) AddAllowed(name, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, hadPrevious := r.cfg.Allowed[name]
	if r.cfg.Allowed == nil {
		r.cfg.Allowed = map[string]string{}
	}
	r.cfg.Allowed[name] = description

	if r.cfg.path == "" {
		return nil
	}

	if err := r.persistLocked(); err != nil {
		if hadPrevious {
			r.cfg.Allowed[name] = previous
		} else {
			delete(r.cfg.Allowed, name)
		}
		return fmt.Errorf("persist allowlist: %w", err)
	}
	return nil
}

func (r *AllowlistRepository) persistLocked() error {
	data, err := os.ReadFile(r.cfg.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	format := r.cfg.format
	if format == "" {
		format, err = detectFormat(r.cfg.path)
		if err != nil {
			return err
		}
	}

	doc, err := decodeDocument(format, data)
	if err != nil {
		return err
	}
	doc["allowed_commands"] = r.cfg.Allowed

	if err := validateDocument(doc); err != nil {
		return err
	}

	encoded, err := encodeDocument(format, doc)
	if err != nil {
		return err
	}
	return filestore.AtomicWrite(r.cfg.path, encoded, 0o600)
}
