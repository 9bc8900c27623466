package permissions

import "context"

const maxAccessLevel = 9

// HasDocumentOperation answers op for one concrete document. The doctype
// check must pass first; then the document is fetched and the owner-only
// aggregation rule applied. A missing document source, or a document the
// source cannot find, leaves nothing to restrict against and allows.
func (e *Evaluator) HasDocumentOperation(ctx context.Context, doctype string, name string, op Operation) (bool, error) {
	ok, err := e.HasOperation(doctype, op)
	if err != nil || !ok {
		return false, err
	}

	snap := e.snapshot()
	if snap.admin {
		return true, nil
	}
	if e.docs == nil {
		return true, nil
	}
	doc, err := e.docs.GetDocument(ctx, doctype, name)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return true, nil
	}

	qualifying, err := e.qualifyingGrants(doctype, op, 0, snap.roles, doc)
	if err != nil {
		return false, err
	}
	if len(qualifying) == 0 {
		return false, nil
	}
	if anyGrantWaivesOwnership(qualifying) {
		return true, nil
	}
	return doc.Owner == snap.user, nil
}

// EffectivePermissions unions the operation flags of every grant that
// applies to the subject. A grant is excluded when it is owner-only (or
// conditioned) and the supplied document does not satisfy it. The first
// contributing grant supplies GrantingRole and AccessLevel.
func (e *Evaluator) EffectivePermissions(doctype string, doc *SubjectDocument) (EffectiveDecision, error) {
	snap := e.snapshot()
	if snap.admin {
		return EffectiveDecision{
			Operations:   fullOperationSet(),
			GrantingRole: e.adminRole,
			AccessLevel:  maxAccessLevel,
		}, nil
	}

	decision := EffectiveDecision{}
	first := true
	for _, grant := range e.rules.RoleGrants(doctype) {
		if !holdsRole(snap.roles, grant.Role) {
			continue
		}
		if grant.OwnerOnly && doc != nil && doc.Owner != snap.user {
			decision.OwnerLimited = true
			continue
		}
		holds, err := grantConditionHolds(grant, doc)
		if err != nil {
			return EffectiveDecision{}, err
		}
		if !holds {
			continue
		}
		if grant.Operations.IsEmpty() {
			continue
		}
		decision.Operations = decision.Operations.Union(grant.Operations)
		if first {
			decision.GrantingRole = grant.Role
			decision.AccessLevel = grant.AccessLevel
			first = false
		}
	}
	return decision, nil
}
