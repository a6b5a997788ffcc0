package i18n

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/garage-remote/internal/settings"
)

// ErrUnsupported is returned when a change requests an unknown language.
var ErrUnsupported = errors.New("unsupported language")

// Store persists the chosen language.
// settings.SQLiteStore satisfies this interface.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Logger is the logging surface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Resolver tracks the active UI language.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Resolver struct {
	store  Store
	logger Logger

	mu      sync.RWMutex
	current string
}

// NewResolver creates a Resolver starting at Fallback.
// store and logger may be nil.
func NewResolver(store Store, logger Logger) *Resolver {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Resolver{
		store:   store,
		logger:  logger,
		current: Fallback,
	}
}

// ResolveInitial picks the start-up language.
//
// A stored supported code wins. Otherwise the preferred locale is
// normalised and the result is persisted so later starts reuse it.
//
// Parameters:
//   - ctx: Context for the store lookups
//   - preferred: Accept-Language style preference, may be empty
//
// Returns:
//   - string: The active language code
func (r *Resolver) ResolveInitial(ctx context.Context, preferred string) string {
	if stored, ok := r.stored(ctx); ok {
		r.setCurrent(stored)
		return stored
	}

	code := Normalise(preferred)
	r.setCurrent(code)
	r.persist(ctx, code)
	return code
}

// OnLocaleChange switches to code and persists it.
// Returns ErrUnsupported if code is not in the language table.
func (r *Resolver) OnLocaleChange(ctx context.Context, code string) error {
	if !IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupported, code)
	}
	r.logger.Debug("switching locale", "locale", code)
	r.setCurrent(code)
	r.persist(ctx, code)
	return nil
}

// Current returns the active language code.
func (r *Resolver) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Resolver) setCurrent(code string) {
	r.mu.Lock()
	r.current = code
	r.mu.Unlock()
}

// stored returns the persisted code when it is present and supported.
func (r *Resolver) stored(ctx context.Context) (string, bool) {
	if r.store == nil {
		return "", false
	}
	value, err := r.store.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, settings.ErrNotFound) {
			r.logger.Warn("reading stored locale failed", "error", err)
		}
		return "", false
	}
	if !IsSupported(value) {
		r.logger.Debug("ignoring unsupported stored locale", "locale", value)
		return "", false
	}
	return value, true
}

// persist writes code to the store. Failures are logged, not returned:
// the in-memory choice stays active.
func (r *Resolver) persist(ctx context.Context, code string) {
	if r.store == nil {
		return
	}
	if err := r.store.Set(ctx, StorageKey, code); err != nil {
		r.logger.Warn("persisting locale failed", "locale", code, "error", err)
	}
}
