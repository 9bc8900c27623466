package permissions

import (
	"strings"
	"sync"
)

// RuleStore holds the rule sets the evaluator reads: per-doctype role grants
// and field access entries, plus the global user restriction list. Reads
// return copies. Every mutator fires the registered invalidation hooks under
// the write lock, so cached decisions for the affected doctype are gone
// before the mutator returns.
type RuleStore struct {
	mu           sync.RWMutex
	grants       map[string][]RoleGrant
	fields       map[string][]FieldAccessEntry
	restrictions []UserRestriction
	hooks        []func(doctype string)
}

func NewRuleStore() *RuleStore {
	return &RuleStore{
		grants: map[string][]RoleGrant{},
		fields: map[string][]FieldAccessEntry{},
	}
}

// OnInvalidate registers a hook called with the affected doctype after each
// mutation. An empty doctype means the whole keyspace.
func (s *RuleStore) OnInvalidate(fn func(doctype string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *RuleStore) SetRoleGrants(doctype string, grants []RoleGrant) {
	doctype = strings.TrimSpace(doctype)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[doctype] = append([]RoleGrant(nil), grants...)
	s.fire(doctype)
}

func (s *RuleStore) SetFieldAccess(doctype string, entries []FieldAccessEntry) {
	doctype = strings.TrimSpace(doctype)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[doctype] = append([]FieldAccessEntry(nil), entries...)
	s.fire(doctype)
}

func (s *RuleStore) AddUserRestriction(r UserRestriction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restrictions = append(s.restrictions, r)
	affected := r.AppliesTo
	if affected == "" {
		affected = r.RestrictionDoctype
	}
	s.fire(affected)
}

// RoleGrants returns a snapshot of the grants registered for doctype. An
// unknown doctype yields an empty slice, not an error.
func (s *RuleStore) RoleGrants(doctype string) []RoleGrant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RoleGrant(nil), s.grants[doctype]...)
}

func (s *RuleStore) FieldAccess(doctype string) []FieldAccessEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]FieldAccessEntry(nil), s.fields[doctype]...)
}

// UserRestrictions returns the restrictions that apply to user on doctype,
// matching either the restriction doctype itself or an explicit AppliesTo.
// An empty doctype returns every restriction for the user.
func (s *RuleStore) UserRestrictions(user string, doctype string) []UserRestriction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []UserRestriction{}
	for _, r := range s.restrictions {
		if r.User != user {
			continue
		}
		if doctype != "" && r.RestrictionDoctype != doctype && r.AppliesTo != doctype {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DefaultRestrictionValue returns the IsDefault value among the user's
// restrictions on restrictionDoctype, if one is set.
func (s *RuleStore) DefaultRestrictionValue(user string, restrictionDoctype string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.restrictions {
		if r.User == user && r.RestrictionDoctype == restrictionDoctype && r.IsDefault {
			return r.Value, true
		}
	}
	return "", false
}

func (s *RuleStore) fire(doctype string) {
	for _, fn := range s.hooks {
		fn(doctype)
	}
}
