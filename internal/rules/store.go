package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"sensorwatch/internal/domain"
	"sensorwatch/internal/storage"

	"github.com/google/uuid"
)

// ErrRuleNotFound indicates absent rule id on update/toggle.
var ErrRuleNotFound = errors.New("rule not found")

// Store owns the persisted user rule list.
// Params: storage backend, logger, and first-run seeding toggle.
// Returns: single writer for the rules blob.
type Store struct {
	mu     sync.RWMutex
	store  storage.Store
	logger *slog.Logger
	rules  []domain.Rule
	seed   bool
}

// NewStore creates rule store and loads persisted rules.
// Params: storage backend, logger, and seedDefaults first-run toggle.
// Returns: initialized store or load/persist error.
func NewStore(backend storage.Store, logger *slog.Logger, seedDefaults bool) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{store: backend, logger: logger, seed: seedDefaults}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

// load reads persisted rules, seeding defaults on first run.
// Params: none.
// Returns: load or seed-persist error.
func (s *Store) load() error {
	rules, found, err := s.store.LoadRules()
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	if !found && s.seed {
		rules = DefaultRules()
		if err := s.store.SaveRules(rules); err != nil {
			return fmt.Errorf("seed default rules: %w", err)
		}
		s.logger.Info("seeded default notification rules", "count", len(rules))
	}
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	return nil
}

// List returns rule copies in insertion order.
// Params: none.
// Returns: detached rule slice.
func (s *Store) List() []domain.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Rule(nil), s.rules...)
}

// Get returns one rule by id.
// Params: rule id.
// Returns: rule copy and existence flag.
func (s *Store) Get(id string) (domain.Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rule := range s.rules {
		if rule.ID == id {
			return rule, true
		}
	}
	return domain.Rule{}, false
}

// Add validates draft, assigns an id, appends, and persists.
// Params: draft rule without id.
// Returns: stored rule with generated id, or validation/persist error.
func (s *Store) Add(draft domain.Rule) (domain.Rule, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return domain.Rule{}, errors.New("rule name is required")
	}
	if !domain.KnownField(draft.Field) {
		return domain.Rule{}, fmt.Errorf("unknown rule field %q", draft.Field)
	}
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}
	draft.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, draft)
	if err := s.persistLocked(); err != nil {
		return domain.Rule{}, err
	}
	return draft, nil
}

// Update merges patch fields into the rule matching id and persists.
// Params: rule id and partial field patch.
// Returns: ErrRuleNotFound when id is absent, else persist error.
func (s *Store) Update(id string, patch domain.RulePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID != id {
			continue
		}
		s.rules[i] = patch.Apply(s.rules[i])
		return s.persistLocked()
	}
	return ErrRuleNotFound
}

// Delete removes the rule matching id and persists.
// Params: rule id.
// Returns: persist error; absent id is a no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rules[:0]
	removed := false
	for _, rule := range s.rules {
		if rule.ID == id {
			removed = true
			continue
		}
		kept = append(kept, rule)
	}
	s.rules = kept
	if !removed {
		return nil
	}
	return s.persistLocked()
}

// Toggle flips enabled flag on the rule matching id and persists.
// Params: rule id.
// Returns: ErrRuleNotFound when id is absent, else persist error.
func (s *Store) Toggle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID != id {
			continue
		}
		s.rules[i].Enabled = !s.rules[i].Enabled
		return s.persistLocked()
	}
	return ErrRuleNotFound
}

// Reload re-reads persisted state, discarding in-memory-only changes.
// Params: none.
// Returns: load error.
func (s *Store) Reload() error {
	return s.load()
}

// persistLocked writes full rule list synchronously.
// Params: none; caller holds the write lock.
// Returns: storage error.
func (s *Store) persistLocked() error {
	if err := s.store.SaveRules(s.rules); err != nil {
		return fmt.Errorf("persist rules: %w", err)
	}
	return nil
}
