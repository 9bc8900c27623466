package permissions

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// Parameter names bound by BuildListFilter.
const (
	ParamOwner         = "permOwner"
	ParamAllowedValues = "permAllowedValues"
)

// ListFilter restricts a bulk listing query without evaluating rows one by
// one. Expression is a boolean SQL fragment with @name placeholders;
// Parameters holds the bindings. The builder never executes anything.
type ListFilter struct {
	Expression      string
	Parameters      map[string]any
	UsesOwnerFilter bool
}

// NamedArgs returns the parameters in the form pgx expects alongside the
// expression.
func (f ListFilter) NamedArgs() pgx.NamedArgs {
	return pgx.NamedArgs(f.Parameters)
}

// BuildListFilter translates the rule sources for doctype into a filter for
// the caller's query executor. Owner clause: emitted only when every
// qualifying read grant is owner-only. Restriction clause: emitted when any
// user restriction applies to doctype. The families AND together; an absent
// family is trivially true.
func (e *Evaluator) BuildListFilter(doctype string) (ListFilter, error) {
	filter := ListFilter{Parameters: map[string]any{}}

	snap := e.snapshot()
	if snap.admin {
		filter.Expression = "TRUE"
		return filter, nil
	}

	// Conditions are per-document and cannot be judged here; a conditioned
	// grant still counts toward visibility, like at doctype level.
	qualifying := []RoleGrant{}
	for _, grant := range e.rules.RoleGrants(doctype) {
		if !holdsRole(snap.roles, grant.Role) {
			continue
		}
		if !grant.Operations.Has(OpRead) {
			continue
		}
		qualifying = append(qualifying, grant)
	}
	if len(qualifying) == 0 {
		filter.Expression = "FALSE"
		return filter, nil
	}

	clauses := []string{}
	if !anyGrantWaivesOwnership(qualifying) {
		clauses = append(clauses, "owner = @"+ParamOwner)
		filter.Parameters[ParamOwner] = snap.user
		filter.UsesOwnerFilter = true
	}

	values := []string{}
	seen := map[string]struct{}{}
	for _, r := range e.rules.UserRestrictions(snap.user, doctype) {
		if _, ok := seen[r.Value]; ok {
			continue
		}
		seen[r.Value] = struct{}{}
		values = append(values, r.Value)
	}
	if len(values) > 0 {
		clauses = append(clauses, "name = ANY(@"+ParamAllowedValues+")")
		filter.Parameters[ParamAllowedValues] = values
	}

	if len(clauses) == 0 {
		filter.Expression = "TRUE"
		return filter, nil
	}
	filter.Expression = strings.Join(clauses, " AND ")
	return filter, nil
}
