package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jacksonlee411/docperm/internal/ruleconfig"
	"github.com/jacksonlee411/docperm/pkg/permissions"
)

func main() {
	if len(os.Args) < 2 {
		fatalf("usage: permtool <check|explain|filter> [args]")
	}

	switch os.Args[1] {
	case "check":
		check(os.Args[2:])
	case "explain":
		explain(os.Args[2:])
	case "filter":
		filter(os.Args[2:])
	default:
		fatalf("unknown subcommand: %s", os.Args[1])
	}
}

type commonFlags struct {
	rules   string
	user    string
	roles   string
	doctype string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.rules, "rules", "", "rule set YAML file")
	fs.StringVar(&c.user, "user", "", "acting user")
	fs.StringVar(&c.roles, "roles", "", "comma-separated role list")
	fs.StringVar(&c.doctype, "doctype", "", "document type")
}

func (c *commonFlags) evaluator() *permissions.Evaluator {
	if c.rules == "" {
		fatalf("missing --rules")
	}
	if c.doctype == "" {
		fatalf("missing --doctype")
	}
	file, err := ruleconfig.LoadRules(c.rules)
	if err != nil {
		fatal(err)
	}
	store := permissions.NewRuleStore()
	if err := file.Apply(store); err != nil {
		fatal(err)
	}
	e := permissions.New(store)
	e.SetUser(c.user, splitRoles(c.roles))
	return e
}

func check(args []string) {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var common commonFlags
	common.register(fs)
	var opRaw string
	fs.StringVar(&opRaw, "op", "", "operation verb")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	op, err := permissions.ParseOperation(opRaw)
	if err != nil {
		fatal(err)
	}
	e := common.evaluator()
	allowed, err := e.HasOperation(common.doctype, op)
	if err != nil {
		fatal(err)
	}
	if !allowed {
		fmt.Printf("deny %s on %s\n", op, common.doctype)
		os.Exit(1)
	}
	fmt.Printf("allow %s on %s\n", op, common.doctype)
}

func explain(args []string) {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var common commonFlags
	common.register(fs)
	var opRaw string
	fs.StringVar(&opRaw, "op", "", "operation verb")
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	op, err := permissions.ParseOperation(opRaw)
	if err != nil {
		fatal(err)
	}
	e := common.evaluator()
	out, err := e.Explain(common.doctype, op, nil)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("trace_id: %s\n", out.TraceID)
	fmt.Printf("allowed: %v\n", out.Allowed)
	fmt.Printf("code: %s\n", out.Code)
	fmt.Printf("reason: %s\n", out.Reason)
	if out.GrantingRole != "" {
		fmt.Printf("granting_role: %s\n", out.GrantingRole)
		fmt.Printf("access_level: %d\n", out.AccessLevel)
	}
	if !out.Allowed {
		os.Exit(1)
	}
}

func filter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		fatal(err)
	}

	e := common.evaluator()
	out, err := e.BuildListFilter(common.doctype)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("expression: %s\n", out.Expression)
	fmt.Printf("owner_filter: %v\n", out.UsesOwnerFilter)
	for name, value := range out.Parameters {
		fmt.Printf("param %s = %v\n", name, value)
	}
}

func splitRoles(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		role := strings.TrimSpace(part)
		if role != "" {
			out = append(out, role)
		}
	}
	return out
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
