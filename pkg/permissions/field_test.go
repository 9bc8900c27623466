package permissions

import (
	"errors"
	"testing"
)

type staticMetadata struct {
	entries map[string][]FieldAccessEntry
	err     error
}

func (m *staticMetadata) FieldAccessLevels(doctype string) ([]FieldAccessEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[doctype], nil
}

func TestFieldAccessLevels_Example(t *testing.T) {
	e, store := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {{Role: "User", Operations: NewOperationSet(OpRead, OpWrite), AccessLevel: 0}},
	})
	store.SetFieldAccess("Expense Claim", []FieldAccessEntry{
		{Field: "amount", AccessLevel: 0, Readable: true, Writable: true},
		{Field: "secret", AccessLevel: 3, Readable: true, Writable: true},
	})
	e.SetUser("tim@example.com", []string{"User"})

	allowed, err := e.CanReadField("Expense Claim", "amount", nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !allowed {
		t.Fatal("amount unreadable")
	}
	allowed, _ = e.CanReadField("Expense Claim", "secret", nil)
	if allowed {
		t.Fatal("secret readable at level 0")
	}

	// Provisioning the role at level 3 opens the field.
	store.SetRoleGrants("Expense Claim", []RoleGrant{
		{Role: "User", Operations: NewOperationSet(OpRead, OpWrite), AccessLevel: 0},
		{Role: "User", Operations: NewOperationSet(OpRead), AccessLevel: 3},
	})
	allowed, _ = e.CanReadField("Expense Claim", "secret", nil)
	if !allowed {
		t.Fatal("secret unreadable at level 3")
	}
	// The level-3 grant carries read only.
	allowed, _ = e.CanWriteField("Expense Claim", "secret", nil)
	if allowed {
		t.Fatal("secret writable")
	}
	// Still blocked above the provisioned level.
	store.SetFieldAccess("Expense Claim", []FieldAccessEntry{
		{Field: "secret", AccessLevel: 5, Readable: true, Writable: true},
	})
	allowed, _ = e.CanReadField("Expense Claim", "secret", nil)
	if allowed {
		t.Fatal("secret readable at level 5")
	}
}

func TestFieldAccess_ModeFlags(t *testing.T) {
	e, store := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {{Role: "User", Operations: NewOperationSet(OpRead, OpWrite)}},
	})
	store.SetFieldAccess("Expense Claim", []FieldAccessEntry{
		{Field: "approver_note", AccessLevel: 0, Readable: true, Writable: false},
	})
	e.SetUser("tim@example.com", []string{"User"})

	allowed, _ := e.CanReadField("Expense Claim", "approver_note", nil)
	if !allowed {
		t.Fatal("read blocked")
	}
	allowed, _ = e.CanWriteField("Expense Claim", "approver_note", nil)
	if allowed {
		t.Fatal("write allowed on non-writable entry")
	}
}

func TestFieldAccess_MetadataFallback(t *testing.T) {
	meta := &staticMetadata{entries: map[string][]FieldAccessEntry{
		"Expense Claim": {{Field: "secret", AccessLevel: 3}},
	}}
	e, _ := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {{Role: "User", Operations: NewOperationSet(OpRead)}},
	}, WithMetadataSource(meta))
	e.SetUser("tim@example.com", []string{"User"})

	level, err := e.FieldAccessLevel("Expense Claim", "secret", ModeRead)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if level != 3 {
		t.Fatalf("level=%d", level)
	}
	allowed, _ := e.CanReadField("Expense Claim", "secret", nil)
	if allowed {
		t.Fatal("metadata-leveled field readable at level 0")
	}

	// No entry anywhere defaults to level 0.
	level, err = e.FieldAccessLevel("Expense Claim", "amount", ModeWrite)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if level != 0 {
		t.Fatalf("level=%d", level)
	}
}

func TestFieldAccess_MetadataErrorPropagates(t *testing.T) {
	boom := errors.New("metadata down")
	e, _ := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {{Role: "User", Operations: NewOperationSet(OpRead)}},
	}, WithMetadataSource(&staticMetadata{err: boom}))
	e.SetUser("tim@example.com", []string{"User"})

	_, err := e.CanReadField("Expense Claim", "secret", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}

func TestFieldAccess_OwnerOnlyAggregation(t *testing.T) {
	e, store := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {
			{Role: "Employee", Operations: NewOperationSet(OpRead), OwnerOnly: true},
		},
	})
	e.SetUser("tim@example.com", []string{"Employee"})
	theirs := &SubjectDocument{Doctype: "Expense Claim", Name: "EXP-001", Owner: "amy@example.com"}
	mine := &SubjectDocument{Doctype: "Expense Claim", Name: "EXP-002", Owner: "tim@example.com"}

	allowed, _ := e.CanReadField("Expense Claim", "amount", theirs)
	if allowed {
		t.Fatal("non-owner read allowed under owner-only grant")
	}
	allowed, _ = e.CanReadField("Expense Claim", "amount", mine)
	if !allowed {
		t.Fatal("owner read denied")
	}

	// One qualifying grant without the owner restriction waives it.
	store.SetRoleGrants("Expense Claim", []RoleGrant{
		{Role: "Employee", Operations: NewOperationSet(OpRead), OwnerOnly: true},
		{Role: "Employee", Operations: NewOperationSet(OpRead)},
	})
	allowed, _ = e.CanReadField("Expense Claim", "amount", theirs)
	if !allowed {
		t.Fatal("ownership not waived")
	}
}

func TestFieldAccess_AdminBypass(t *testing.T) {
	e, store := newTestEvaluator(t, nil)
	store.SetFieldAccess("Expense Claim", []FieldAccessEntry{
		{Field: "secret", AccessLevel: 9, Readable: false, Writable: false},
	})
	e.SetUser("root@example.com", []string{DefaultAdminRole})

	allowed, _ := e.CanWriteField("Expense Claim", "secret", nil)
	if !allowed {
		t.Fatal("admin blocked")
	}
}

func TestFieldAccess_UnknownMode(t *testing.T) {
	e, _ := newTestEvaluator(t, nil)
	_, err := e.FieldAccessLevel("Expense Claim", "amount", AccessMode("append"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsConfiguration(err) {
		t.Fatalf("err=%v", err)
	}
}
