package permissions

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Grant conditions are CEL expressions over a single `doc` variable, a
// string map carrying doctype, name, owner and status. Compiled programs are
// cached process-wide; grant sets are small and conditions repeat across
// evaluators.

var grantConditionPrograms sync.Map

func newGrantConditionEnv() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("doc", cel.MapType(cel.StringType, cel.StringType)))
}

func compileGrantCondition(expr string) (cel.Program, error) {
	if cached, ok := grantConditionPrograms.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newGrantConditionEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, newConfiguration(fmt.Sprintf("permissions: invalid grant condition %q: %v", expr, issues.Err()))
	}
	if ast.OutputType() != cel.BoolType {
		return nil, newConfiguration(fmt.Sprintf("permissions: grant condition %q must be boolean", expr))
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	grantConditionPrograms.Store(expr, program)
	return program, nil
}

// grantConditionHolds reports whether the grant's condition passes for doc.
// An empty condition always holds; a condition with no document to judge is
// ignored, like OwnerOnly at doctype level.
func grantConditionHolds(grant RoleGrant, doc *SubjectDocument) (bool, error) {
	if grant.Condition == "" || doc == nil {
		return true, nil
	}
	program, err := compileGrantCondition(grant.Condition)
	if err != nil {
		return false, err
	}
	out, _, err := program.Eval(map[string]any{"doc": map[string]string{
		"doctype": doc.Doctype,
		"name":    doc.Name,
		"owner":   doc.Owner,
		"status":  doc.Status,
	}})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, newConfiguration(fmt.Sprintf("permissions: grant condition %q must be boolean", grant.Condition))
	}
	return v, nil
}
