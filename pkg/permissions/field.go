package permissions

// AccessMode selects which side of a field check applies.
type AccessMode string

const (
	ModeRead  AccessMode = "read"
	ModeWrite AccessMode = "write"
)

func (m AccessMode) operation() (Operation, error) {
	switch m {
	case ModeRead:
		return OpRead, nil
	case ModeWrite:
		return OpWrite, nil
	default:
		return "", newConfiguration("permissions: unknown access mode " + string(m))
	}
}

// FieldAccessLevel returns the configured access level for field: the rule
// store entry if one exists, else the metadata collaborator's, else 0.
// Restriction requires an explicit, present rule.
func (e *Evaluator) FieldAccessLevel(doctype string, field string, mode AccessMode) (int, error) {
	if _, err := mode.operation(); err != nil {
		return 0, err
	}
	entry, ok, err := e.fieldEntry(doctype, field)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return entry.AccessLevel, nil
}

func (e *Evaluator) CanReadField(doctype string, field string, doc *SubjectDocument) (bool, error) {
	return e.canAccessField(doctype, field, ModeRead, doc)
}

func (e *Evaluator) CanWriteField(doctype string, field string, doc *SubjectDocument) (bool, error) {
	return e.canAccessField(doctype, field, ModeWrite, doc)
}

// canAccessField gates a field on three rules: the entry's per-mode flag, a
// grant provisioned at or above the field's access level, and — when a
// subject document is supplied — the owner-only aggregation rule. A field at
// level 0 is reachable by any grant carrying the mode's operation.
func (e *Evaluator) canAccessField(doctype string, field string, mode AccessMode, doc *SubjectDocument) (bool, error) {
	op, err := mode.operation()
	if err != nil {
		return false, err
	}

	snap := e.snapshot()
	if snap.admin {
		return true, nil
	}

	entry, present, err := e.fieldEntry(doctype, field)
	if err != nil {
		return false, err
	}
	level := 0
	if present {
		level = entry.AccessLevel
		if mode == ModeRead && !entry.Readable {
			return false, nil
		}
		if mode == ModeWrite && !entry.Writable {
			return false, nil
		}
	}

	qualifying, err := e.qualifyingGrants(doctype, op, level, snap.roles, doc)
	if err != nil {
		return false, err
	}
	if len(qualifying) == 0 {
		return false, nil
	}
	if doc != nil && !anyGrantWaivesOwnership(qualifying) {
		return doc.Owner == snap.user, nil
	}
	return true, nil
}

// fieldEntry resolves a field's access entry from the rule store, falling
// back to the metadata collaborator. Metadata entries carry no flags and are
// treated as readable and writable.
func (e *Evaluator) fieldEntry(doctype string, field string) (FieldAccessEntry, bool, error) {
	for _, entry := range e.rules.FieldAccess(doctype) {
		if entry.Field == field {
			return entry, true, nil
		}
	}
	if e.meta == nil {
		return FieldAccessEntry{}, false, nil
	}
	entries, err := e.meta.FieldAccessLevels(doctype)
	if err != nil {
		return FieldAccessEntry{}, false, err
	}
	for _, entry := range entries {
		if entry.Field == field {
			entry.Readable = true
			entry.Writable = true
			return entry, true, nil
		}
	}
	return FieldAccessEntry{}, false, nil
}

// qualifyingGrants collects the grants that could satisfy op at the given
// field level for this role set, with conditioned grants filtered against
// the subject document.
func (e *Evaluator) qualifyingGrants(doctype string, op Operation, level int, roles map[string]struct{}, doc *SubjectDocument) ([]RoleGrant, error) {
	out := []RoleGrant{}
	for _, grant := range e.rules.RoleGrants(doctype) {
		if !holdsRole(roles, grant.Role) {
			continue
		}
		if !grant.Operations.Has(op) {
			continue
		}
		if level > 0 && grant.AccessLevel < level {
			continue
		}
		holds, err := grantConditionHolds(grant, doc)
		if err != nil {
			return nil, err
		}
		if !holds {
			continue
		}
		out = append(out, grant)
	}
	return out, nil
}
