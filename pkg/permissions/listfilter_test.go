package permissions

import (
	"strings"
	"testing"
)

func TestBuildListFilter_Admin(t *testing.T) {
	e, _ := newTestEvaluator(t, nil)
	e.SetUser("root@example.com", []string{DefaultAdminRole})

	filter, err := e.BuildListFilter("Expense Claim")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if filter.Expression != "TRUE" || filter.UsesOwnerFilter {
		t.Fatalf("filter=%+v", filter)
	}
}

func TestBuildListFilter_NoGrants(t *testing.T) {
	e, _ := newTestEvaluator(t, nil)
	e.SetUser("tim@example.com", []string{"Employee"})

	filter, err := e.BuildListFilter("Expense Claim")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if filter.Expression != "FALSE" {
		t.Fatalf("expr=%q", filter.Expression)
	}
}

func TestBuildListFilter_OwnerClause(t *testing.T) {
	e, store := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {{Role: "Employee", Operations: NewOperationSet(OpRead), OwnerOnly: true}},
	})
	e.SetUser("tim@example.com", []string{"Employee"})

	filter, err := e.BuildListFilter("Expense Claim")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !filter.UsesOwnerFilter {
		t.Fatal("owner filter missing")
	}
	if !strings.Contains(filter.Expression, "owner = @"+ParamOwner) {
		t.Fatalf("expr=%q", filter.Expression)
	}
	if filter.Parameters[ParamOwner] != "tim@example.com" {
		t.Fatalf("params=%v", filter.Parameters)
	}

	// A full read grant removes the owner clause entirely.
	store.SetRoleGrants("Expense Claim", []RoleGrant{
		{Role: "Employee", Operations: NewOperationSet(OpRead), OwnerOnly: true},
		{Role: "Employee", Operations: NewOperationSet(OpRead)},
	})
	filter, err = e.BuildListFilter("Expense Claim")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if filter.UsesOwnerFilter || strings.Contains(filter.Expression, "owner") {
		t.Fatalf("filter=%+v", filter)
	}
	if filter.Expression != "TRUE" {
		t.Fatalf("expr=%q", filter.Expression)
	}
}

func TestBuildListFilter_RestrictionClause(t *testing.T) {
	e, store := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {{Role: "Employee", Operations: NewOperationSet(OpRead)}},
	})
	store.AddUserRestriction(UserRestriction{User: "tim@example.com", RestrictionDoctype: "Expense Claim", Value: "EXP-001"})
	store.AddUserRestriction(UserRestriction{User: "tim@example.com", RestrictionDoctype: "Company", Value: "Acme West", AppliesTo: "Expense Claim"})
	store.AddUserRestriction(UserRestriction{User: "amy@example.com", RestrictionDoctype: "Expense Claim", Value: "EXP-009"})
	e.SetUser("tim@example.com", []string{"Employee"})

	filter, err := e.BuildListFilter("Expense Claim")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(filter.Expression, "name = ANY(@"+ParamAllowedValues+")") {
		t.Fatalf("expr=%q", filter.Expression)
	}
	values, ok := filter.Parameters[ParamAllowedValues].([]string)
	if !ok || len(values) != 2 {
		t.Fatalf("params=%v", filter.Parameters)
	}
	if values[0] != "EXP-001" || values[1] != "Acme West" {
		t.Fatalf("values=%v", values)
	}
}

func TestBuildListFilter_CombinedClauses(t *testing.T) {
	e, store := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {{Role: "Employee", Operations: NewOperationSet(OpRead), OwnerOnly: true}},
	})
	store.AddUserRestriction(UserRestriction{User: "tim@example.com", RestrictionDoctype: "Expense Claim", Value: "EXP-001"})
	e.SetUser("tim@example.com", []string{"Employee"})

	filter, err := e.BuildListFilter("Expense Claim")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := "owner = @" + ParamOwner + " AND name = ANY(@" + ParamAllowedValues + ")"
	if filter.Expression != want {
		t.Fatalf("expr=%q", filter.Expression)
	}
	args := filter.NamedArgs()
	if args[ParamOwner] != "tim@example.com" {
		t.Fatalf("args=%v", args)
	}
}

func TestBuildListFilter_WriteOnlyGrantHidesList(t *testing.T) {
	e, _ := newTestEvaluator(t, map[string][]RoleGrant{
		"Expense Claim": {{Role: "Employee", Operations: NewOperationSet(OpWrite)}},
	})
	e.SetUser("tim@example.com", []string{"Employee"})

	filter, err := e.BuildListFilter("Expense Claim")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if filter.Expression != "FALSE" {
		t.Fatalf("expr=%q", filter.Expression)
	}
}
