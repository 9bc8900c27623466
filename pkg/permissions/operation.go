package permissions

import (
	"fmt"
	"strings"
)

// Operation is one of the fixed permission verbs a grant can carry.
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpCreate Operation = "create"
	OpDelete Operation = "delete"
	OpSubmit Operation = "submit"
	OpCancel Operation = "cancel"
	OpAmend  Operation = "amend"
	OpReport Operation = "report"
	OpExport Operation = "export"
	OpImport Operation = "import"
	OpShare  Operation = "share"
	OpPrint  Operation = "print"
	OpEmail  Operation = "email"
	OpSelect Operation = "select"
)

// AllOperations lists the vocabulary in canonical order.
var AllOperations = []Operation{
	OpRead, OpWrite, OpCreate, OpDelete, OpSubmit, OpCancel, OpAmend,
	OpReport, OpExport, OpImport, OpShare, OpPrint, OpEmail, OpSelect,
}

var operationBits = map[Operation]OperationSet{
	OpRead:   1 << 0,
	OpWrite:  1 << 1,
	OpCreate: 1 << 2,
	OpDelete: 1 << 3,
	OpSubmit: 1 << 4,
	OpCancel: 1 << 5,
	OpAmend:  1 << 6,
	OpReport: 1 << 7,
	OpExport: 1 << 8,
	OpImport: 1 << 9,
	OpShare:  1 << 10,
	OpPrint:  1 << 11,
	OpEmail:  1 << 12,
	OpSelect: 1 << 13,
}

func (op Operation) valid() bool {
	_, ok := operationBits[op]
	return ok
}

// ParseOperation maps a verb outside the fixed vocabulary to a
// ConfigurationError rather than a denial.
func ParseOperation(raw string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(raw)))
	if !op.valid() {
		return "", newConfiguration(fmt.Sprintf("permissions: unknown operation %q", raw))
	}
	return op, nil
}

// OperationSet is a bitmask over the 14 operations.
type OperationSet uint16

// NewOperationSet builds a set from verbs. Unknown verbs are ignored; use
// ParseOperation first when the input is untrusted.
func NewOperationSet(ops ...Operation) OperationSet {
	var s OperationSet
	for _, op := range ops {
		s |= operationBits[op]
	}
	return s
}

func (s OperationSet) Has(op Operation) bool {
	return s&operationBits[op] != 0
}

func (s OperationSet) With(op Operation) OperationSet {
	return s | operationBits[op]
}

func (s OperationSet) Union(other OperationSet) OperationSet {
	return s | other
}

func (s OperationSet) IsEmpty() bool {
	return s == 0
}

// List returns the member operations in canonical order.
func (s OperationSet) List() []Operation {
	out := make([]Operation, 0, len(AllOperations))
	for _, op := range AllOperations {
		if s.Has(op) {
			out = append(out, op)
		}
	}
	return out
}

func fullOperationSet() OperationSet {
	return NewOperationSet(AllOperations...)
}
