package permissions

import (
	"sort"
	"strings"
	"sync"
)

// Pool hands out one evaluator per user identity so concurrent request
// handlers for the same user share a decision cache.
type Pool struct {
	rules *RuleStore
	opts  []Option

	mu    sync.Mutex
	evals map[string]*Evaluator
	seen  map[string]string
}

func NewPool(rules *RuleStore, opts ...Option) *Pool {
	return &Pool{
		rules: rules,
		opts:  opts,
		evals: map[string]*Evaluator{},
		seen:  map[string]string{},
	}
}

// ForUser returns the user's evaluator, creating it on first use. A changed
// role set re-binds the identity, which flushes that evaluator's cache.
func (p *Pool) ForUser(user string, roles []string) *Evaluator {
	fp := roleFingerprint(roles)

	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.evals[user]
	if !ok {
		e = New(p.rules, p.opts...)
		e.SetUser(user, roles)
		p.evals[user] = e
		p.seen[user] = fp
		return e
	}
	if p.seen[user] != fp {
		e.SetUser(user, roles)
		p.seen[user] = fp
	}
	return e
}

// InvalidateAll flushes every pooled evaluator's decision cache.
func (p *Pool) InvalidateAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.evals {
		e.ClearCache()
	}
}

func roleFingerprint(roles []string) string {
	sorted := append([]string(nil), roles...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
