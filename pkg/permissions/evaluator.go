package permissions

import (
	"sort"
	"sync"
)

// DefaultAdminRole is the distinguished role whose holders bypass every
// check before any cache or rule-store access.
const DefaultAdminRole = "System Manager"

type Option func(*Evaluator)

func WithMetadataSource(meta MetadataSource) Option {
	return func(e *Evaluator) { e.meta = meta }
}

func WithDocumentSource(docs DocumentSource) Option {
	return func(e *Evaluator) { e.docs = docs }
}

func WithAdminRole(role string) Option {
	return func(e *Evaluator) { e.adminRole = role }
}

func WithCacheSize(size int) Option {
	return func(e *Evaluator) { e.cacheSize = size }
}

// Evaluator answers permission questions for one identity (user + role set).
// Safe for concurrent use. Doctype-level decisions are memoized; the cache
// is flushed on identity change and on rule mutation. The rule store is
// never read while the evaluator lock is held, and no lock is held across
// collaborator calls.
//
// A result computed from pre-mutation rules must never land in the cache
// after the mutation's flush, so every flush bumps a generation counter and
// a computed result is only cached when the generation it started under is
// still current.
type Evaluator struct {
	rules     *RuleStore
	meta      MetadataSource
	docs      DocumentSource
	adminRole string
	cacheSize int

	mu    sync.RWMutex
	user  string
	roles map[string]struct{}
	gen   uint64
	cache *decisionCache
}

func New(rules *RuleStore, opts ...Option) *Evaluator {
	e := &Evaluator{
		rules:     rules,
		adminRole: DefaultAdminRole,
		cacheSize: defaultCacheSize,
		roles:     map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = newDecisionCache(e.cacheSize)
	rules.OnInvalidate(e.invalidate)
	return e
}

// SetUser switches the acting identity. The whole decision cache is flushed;
// cached results belong to the previous identity.
func (e *Evaluator) SetUser(user string, roles []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.user = user
	e.roles = make(map[string]struct{}, len(roles))
	for _, r := range roles {
		e.roles[r] = struct{}{}
	}
	e.gen++
	e.cache.purge()
}

func (e *Evaluator) User() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.user
}

func (e *Evaluator) Roles() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.roles))
	for r := range e.roles {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.cache.purge()
}

// CacheLen reports the number of memoized doctype-level decisions.
func (e *Evaluator) CacheLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cache.len()
}

func (e *Evaluator) invalidate(doctype string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	if doctype == "" {
		e.cache.purge()
		return
	}
	e.cache.purgeDoctype(doctype)
}

// HasOperation reports whether any grant on doctype held by the current role
// set carries op. One qualifying role is sufficient; a doctype with no
// registered grants denies everything. The result is memoized under
// (doctype, op).
func (e *Evaluator) HasOperation(doctype string, op Operation) (bool, error) {
	if !op.valid() {
		return false, newConfiguration("permissions: unknown operation " + string(op))
	}

	snap := e.snapshot()
	if snap.admin {
		return true, nil
	}
	if allowed, ok := snap.cached(doctype, op); ok {
		return allowed, nil
	}

	allowed := false
	for _, grant := range e.rules.RoleGrants(doctype) {
		if !holdsRole(snap.roles, grant.Role) {
			continue
		}
		if grant.Operations.Has(op) {
			allowed = true
			break
		}
	}
	e.store(snap, doctype, op, allowed)
	return allowed, nil
}

func (e *Evaluator) CanRead(doctype string) (bool, error)   { return e.HasOperation(doctype, OpRead) }
func (e *Evaluator) CanWrite(doctype string) (bool, error)  { return e.HasOperation(doctype, OpWrite) }
func (e *Evaluator) CanCreate(doctype string) (bool, error) { return e.HasOperation(doctype, OpCreate) }
func (e *Evaluator) CanDelete(doctype string) (bool, error) { return e.HasOperation(doctype, OpDelete) }
func (e *Evaluator) CanSubmit(doctype string) (bool, error) { return e.HasOperation(doctype, OpSubmit) }
func (e *Evaluator) CanCancel(doctype string) (bool, error) { return e.HasOperation(doctype, OpCancel) }
func (e *Evaluator) CanAmend(doctype string) (bool, error)  { return e.HasOperation(doctype, OpAmend) }
func (e *Evaluator) CanReport(doctype string) (bool, error) { return e.HasOperation(doctype, OpReport) }
func (e *Evaluator) CanExport(doctype string) (bool, error) { return e.HasOperation(doctype, OpExport) }
func (e *Evaluator) CanImport(doctype string) (bool, error) { return e.HasOperation(doctype, OpImport) }
func (e *Evaluator) CanShare(doctype string) (bool, error)  { return e.HasOperation(doctype, OpShare) }
func (e *Evaluator) CanPrint(doctype string) (bool, error)  { return e.HasOperation(doctype, OpPrint) }
func (e *Evaluator) CanEmail(doctype string) (bool, error)  { return e.HasOperation(doctype, OpEmail) }
func (e *Evaluator) CanSelect(doctype string) (bool, error) { return e.HasOperation(doctype, OpSelect) }

// identitySnapshot carries everything a check needs after the evaluator lock
// is released.
type identitySnapshot struct {
	user  string
	roles map[string]struct{}
	admin bool
	gen   uint64
	cache *decisionCache
}

func (s identitySnapshot) cached(doctype string, op Operation) (bool, bool) {
	return s.cache.get(doctype, op)
}

func (e *Evaluator) snapshot() identitySnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	roles := make(map[string]struct{}, len(e.roles))
	for r := range e.roles {
		roles[r] = struct{}{}
	}
	_, admin := e.roles[e.adminRole]
	return identitySnapshot{user: e.user, roles: roles, admin: admin, gen: e.gen, cache: e.cache}
}

// store memoizes a computed decision unless an identity change or rule
// mutation happened since the snapshot was taken.
func (e *Evaluator) store(snap identitySnapshot, doctype string, op Operation, allowed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != snap.gen {
		return
	}
	e.cache.set(doctype, op, allowed)
}

func holdsRole(roles map[string]struct{}, role string) bool {
	_, ok := roles[role]
	return ok
}

// anyGrantWaivesOwnership implements the owner-only aggregation rule shared
// by the field, document and list-filter paths: access is owner-restricted
// only when every qualifying grant demands ownership.
func anyGrantWaivesOwnership(qualifying []RoleGrant) bool {
	for _, grant := range qualifying {
		if !grant.OwnerOnly {
			return true
		}
	}
	return false
}
