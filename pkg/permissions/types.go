package permissions

import "context"

// RoleGrant attaches a set of operation flags to one role on one doctype.
// A doctype usually carries several grants; one qualifying grant is enough
// (OR-aggregation, no deny-overrides).
type RoleGrant struct {
	Role        string
	Operations  OperationSet
	AccessLevel int
	OwnerOnly   bool
	// Condition is an optional CEL expression over `doc` (a string map with
	// doctype, name, owner, status). A conditioned grant contributes to
	// document-level checks only when the expression holds; doctype-level
	// checks ignore it, the same way OwnerOnly is ignored without a document.
	Condition string
}

// FieldAccessEntry raises a field above the baseline access level 0. A field
// with no entry stays at level 0 and is gated by doctype-level rules alone.
type FieldAccessEntry struct {
	Field       string
	AccessLevel int
	Readable    bool
	Writable    bool
}

// UserRestriction whitelists which values of RestrictionDoctype the user may
// see or reference. Multiple restrictions for the same restriction doctype
// OR together. AppliesTo narrows the restriction to a single doctype;
// IsDefault marks the value a form layer should preselect.
type UserRestriction struct {
	User               string
	RestrictionDoctype string
	Value              string
	AppliesTo          string
	IsDefault          bool
}

// SubjectDocument is a read-only snapshot supplied by the document lookup.
type SubjectDocument struct {
	Doctype string
	Name    string
	Owner   string
	Status  string
}

// EffectiveDecision is the ephemeral union of everything the current identity
// may do to one document. Never persisted.
type EffectiveDecision struct {
	Operations   OperationSet
	GrantingRole string
	AccessLevel  int
	// OwnerLimited reports that at least one matching grant was excluded
	// because it demanded ownership the current user does not have.
	OwnerLimited bool
}

// MetadataSource supplies per-field access levels for doctypes the rule
// store has no entries for. May return an empty list.
type MetadataSource interface {
	FieldAccessLevels(doctype string) ([]FieldAccessEntry, error)
}

// DocumentSource resolves a document for ownership checks. A nil document
// with a nil error means absent; absence is permissive (nothing to restrict
// against).
type DocumentSource interface {
	GetDocument(ctx context.Context, doctype string, name string) (*SubjectDocument, error)
}
