// Package markets holds the tradable market set: the markets file loaded at
// startup plus anything the discovery collaborator adds at runtime.
package markets

import (
	"fmt"
	"os"
	"sync"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

// fileMarket is the markets file entry format.
type fileMarket struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"` // "binary" or "multi"
	YesTokenID string          `json:"yes_token_id,omitempty"`
	NoTokenID  string          `json:"no_token_id,omitempty"`
	Outcomes   []types.Outcome `json:"outcomes,omitempty"`
}

// LoadFile parses the markets file. Any parse or validation error is fatal
// for startup.
func LoadFile(path string) ([]types.Market, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markets file: %w", err)
	}

	var entries []fileMarket
	if err := gojson.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse markets file: %w", err)
	}

	out := make([]types.Market, 0, len(entries))
	for i, entry := range entries {
		switch entry.Type {
		case "binary":
			if entry.YesTokenID == "" || entry.NoTokenID == "" {
				return nil, fmt.Errorf("market %d (%s): binary market missing token ids", i, entry.Name)
			}
			out = append(out, types.NewBinaryMarket(entry.Name, entry.YesTokenID, entry.NoTokenID))
		case "multi":
			if len(entry.Outcomes) < 2 {
				return nil, fmt.Errorf("market %d (%s): multi market needs at least 2 outcomes", i, entry.Name)
			}
			out = append(out, types.NewMultiMarket(entry.Name, entry.Outcomes))
		default:
			return nil, fmt.Errorf("market %d (%s): unknown type %q", i, entry.Name, entry.Type)
		}
	}

	return out, nil
}

// Registry is the live market set. Reads vastly outnumber writes; writes come
// only from startup and the discovery collaborator.
type Registry struct {
	mu      sync.RWMutex
	markets map[string]types.Market
	order   []string
	logger  *zap.Logger
}

// NewRegistry creates a registry seeded with the given markets.
func NewRegistry(seed []types.Market, logger *zap.Logger) *Registry {
	r := &Registry{
		markets: make(map[string]types.Market, len(seed)),
		logger:  logger,
	}
	for _, m := range seed {
		r.markets[m.Name] = m
		r.order = append(r.order, m.Name)
	}
	return r
}

// Add registers a market at runtime; existing names are ignored.
func (r *Registry) Add(m types.Market) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.markets[m.Name]; exists {
		return false
	}
	r.markets[m.Name] = m
	r.order = append(r.order, m.Name)

	r.logger.Info("market-registered",
		zap.String("market", m.Name),
		zap.Int("outcomes", len(m.Outcomes)))
	return true
}

// All returns every market in registration order.
func (r *Registry) All() []types.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Market, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.markets[name])
	}
	return out
}

// TokenIDs returns the token ids of every registered outcome.
func (r *Registry) TokenIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, name := range r.order {
		ids = append(ids, r.markets[name].TokenIDs()...)
	}
	return ids
}

// Len returns the number of registered markets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.markets)
}
