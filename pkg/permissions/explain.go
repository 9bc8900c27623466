package permissions

import (
	"fmt"

	"github.com/google/uuid"
)

// Stable reason codes for Explanation.Code, ordered from most to least
// specific.
const (
	ReasonGranted         = "GRANTED"
	ReasonAdminBypass     = "ADMIN_BYPASS"
	ReasonOwnerMismatch   = "OWNER_MISMATCH"
	ReasonNoMatchingGrant = "NO_MATCHING_GRANT"
)

// Explanation is the diagnostic form of a decision: the same matching loop
// as HasOperation, reporting the first qualifying grant instead of a bare
// boolean. TraceID ties a decision to request logs.
type Explanation struct {
	TraceID      string
	Allowed      bool
	Code         string
	Reason       string
	GrantingRole string
	AccessLevel  int
	// OwnerMatch is set when ownership decided the outcome: the granting
	// grant was owner-only and the user owns the document.
	OwnerMatch bool
}

// Explain never consults the decision cache; diagnostics are rare and must
// reflect the live rule set.
func (e *Evaluator) Explain(doctype string, op Operation, doc *SubjectDocument) (Explanation, error) {
	if !op.valid() {
		return Explanation{}, newConfiguration("permissions: unknown operation " + string(op))
	}

	out := Explanation{TraceID: uuid.NewString()}
	snap := e.snapshot()
	if snap.admin {
		out.Allowed = true
		out.Code = ReasonAdminBypass
		out.Reason = fmt.Sprintf("role %q bypasses permission checks", e.adminRole)
		out.GrantingRole = e.adminRole
		out.AccessLevel = maxAccessLevel
		return out, nil
	}

	ownerBlocked := false
	for _, grant := range e.rules.RoleGrants(doctype) {
		if !holdsRole(snap.roles, grant.Role) {
			continue
		}
		if !grant.Operations.Has(op) {
			continue
		}
		holds, err := grantConditionHolds(grant, doc)
		if err != nil {
			return Explanation{}, err
		}
		if !holds {
			continue
		}
		if grant.OwnerOnly && doc != nil && doc.Owner != snap.user {
			ownerBlocked = true
			continue
		}
		out.Allowed = true
		out.Code = ReasonGranted
		out.Reason = fmt.Sprintf("role %q grants %s on %s", grant.Role, op, doctype)
		out.GrantingRole = grant.Role
		out.AccessLevel = grant.AccessLevel
		out.OwnerMatch = grant.OwnerOnly && doc != nil && doc.Owner == snap.user
		return out, nil
	}

	if ownerBlocked {
		out.Code = ReasonOwnerMismatch
		out.Reason = fmt.Sprintf("only owner-restricted grants permit %s on %s and user %q is not the owner", op, doctype, snap.user)
		return out, nil
	}
	out.Code = ReasonNoMatchingGrant
	out.Reason = fmt.Sprintf("user %q holds no role granting %s on %s", snap.user, op, doctype)
	return out, nil
}
