// Package indicator keeps a registry of named indicators that turn bars into
// a series: native moving averages, TickScript programs and Starlark scripts.
package indicator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arijanluiken/tickscript/pkg/market"
)

// Indicator computes one series aligned with the input bars.
type Indicator interface {
	Name() string
	Calculate(ctx context.Context, bars []market.Bar) ([]float64, error)
}

// Manager holds active indicators and their latest results
type Manager struct {
	logger zerolog.Logger

	mu         sync.RWMutex
	indicators []Indicator
	results    map[string][]float64
}

// NewManager creates a new indicator manager
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		logger:  logger.With().Str("component", "indicator_manager").Logger(),
		results: make(map[string][]float64),
	}
}

// Add registers an indicator. Names are unique.
func (m *Manager) Add(ind Indicator) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.indicators {
		if existing.Name() == ind.Name() {
			return fmt.Errorf("indicator %s already registered", ind.Name())
		}
	}
	m.indicators = append(m.indicators, ind)

	m.logger.Debug().Str("indicator", ind.Name()).Msg("Indicator added")
	return nil
}

// Remove drops the indicator and its last result. It reports whether the
// indicator was registered.
func (m *Manager) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, ind := range m.indicators {
		if ind.Name() == name {
			m.indicators = append(m.indicators[:i], m.indicators[i+1:]...)
			delete(m.results, name)
			m.logger.Debug().Str("indicator", name).Msg("Indicator removed")
			return true
		}
	}
	return false
}

// Get returns the indicator registered under name.
func (m *Manager) Get(name string) (Indicator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ind := range m.indicators {
		if ind.Name() == name {
			return ind, true
		}
	}
	return nil, false
}

// List returns indicator names in registration order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.indicators))
	for i, ind := range m.indicators {
		names[i] = ind.Name()
	}
	return names
}

// Result returns the last calculated series for name.
func (m *Manager) Result(name string) ([]float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series, ok := m.results[name]
	return series, ok
}

// Calculate recalculates one indicator and stores the result.
func (m *Manager) Calculate(ctx context.Context, name string, bars []market.Bar) ([]float64, error) {
	ind, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("indicator %s not found", name)
	}

	series, err := ind.Calculate(ctx, bars)
	if err != nil {
		return nil, fmt.Errorf("indicator %s: %w", name, err)
	}
	if len(series) != len(bars) {
		return nil, fmt.Errorf("indicator %s returned %d values for %d bars", name, len(series), len(bars))
	}

	m.mu.Lock()
	m.results[name] = series
	m.mu.Unlock()

	return series, nil
}

// CalculateAll recalculates every indicator. Failures are logged and
// returned together; successful results are still stored and returned.
func (m *Manager) CalculateAll(ctx context.Context, bars []market.Bar) (map[string][]float64, error) {
	results := make(map[string][]float64)
	var errs []error

	for _, name := range m.List() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		series, err := m.Calculate(ctx, name, bars)
		if err != nil {
			m.logger.Error().Err(err).Str("indicator", name).Msg("Failed to calculate indicator")
			errs = append(errs, err)
			continue
		}
		results[name] = series
	}

	m.logger.Debug().
		Int("indicators", len(results)).
		Int("failed", len(errs)).
		Int("bars", len(bars)).
		Msg("Indicators recalculated")

	return results, errors.Join(errs...)
}
