// Package ruleconfig loads permission rule sets from YAML files into a
// permissions.RuleStore. Rule sets are process configuration; this loader is
// how a process populates them at start.
package ruleconfig

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jacksonlee411/docperm/pkg/permissions"
)

type File struct {
	Version      int                `yaml:"version"`
	Doctypes     map[string]Doctype `yaml:"doctypes"`
	Restrictions []Restriction      `yaml:"restrictions"`
}

type Doctype struct {
	Grants []Grant `yaml:"grants"`
	Fields []Field `yaml:"fields"`
}

type Grant struct {
	Role        string   `yaml:"role"`
	Operations  []string `yaml:"operations"`
	AccessLevel int      `yaml:"access_level"`
	OwnerOnly   bool     `yaml:"owner_only"`
	Condition   string   `yaml:"condition"`
}

type Field struct {
	Field       string `yaml:"field"`
	AccessLevel int    `yaml:"access_level"`
	Readable    *bool  `yaml:"readable"`
	Writable    *bool  `yaml:"writable"`
}

type Restriction struct {
	User               string `yaml:"user"`
	RestrictionDoctype string `yaml:"restriction_doctype"`
	Value              string `yaml:"value"`
	AppliesTo          string `yaml:"applies_to"`
	IsDefault          bool   `yaml:"is_default"`
}

func ParseRulesYAML(b []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, err
	}
	if f.Version != 1 {
		return File{}, errors.New("ruleconfig: unsupported version")
	}
	if err := f.validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func LoadRules(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return ParseRulesYAML(b)
}

func (f File) validate() error {
	for doctype, dt := range f.Doctypes {
		if doctype == "" {
			return errors.New("ruleconfig: empty doctype name")
		}
		for _, g := range dt.Grants {
			if g.Role == "" {
				return fmt.Errorf("ruleconfig: %s: grant without role", doctype)
			}
			if g.AccessLevel < 0 || g.AccessLevel > 9 {
				return fmt.Errorf("ruleconfig: %s: role %s: access_level out of range 0-9", doctype, g.Role)
			}
			for _, raw := range g.Operations {
				if _, err := permissions.ParseOperation(raw); err != nil {
					return fmt.Errorf("ruleconfig: %s: role %s: %w", doctype, g.Role, err)
				}
			}
		}
		for _, fl := range dt.Fields {
			if fl.Field == "" {
				return fmt.Errorf("ruleconfig: %s: field entry without field name", doctype)
			}
			if fl.AccessLevel < 0 || fl.AccessLevel > 9 {
				return fmt.Errorf("ruleconfig: %s: field %s: access_level out of range 0-9", doctype, fl.Field)
			}
		}
	}
	for _, r := range f.Restrictions {
		if r.User == "" || r.RestrictionDoctype == "" || r.Value == "" {
			return errors.New("ruleconfig: restriction requires user, restriction_doctype and value")
		}
	}
	return nil
}

// Apply registers the file's rule sets on store. Validation has already
// passed in ParseRulesYAML, so the ParseOperation calls cannot fail here.
func (f File) Apply(store *permissions.RuleStore) error {
	for doctype, dt := range f.Doctypes {
		grants := make([]permissions.RoleGrant, 0, len(dt.Grants))
		for _, g := range dt.Grants {
			ops := make([]permissions.Operation, 0, len(g.Operations))
			for _, raw := range g.Operations {
				op, err := permissions.ParseOperation(raw)
				if err != nil {
					return err
				}
				ops = append(ops, op)
			}
			grants = append(grants, permissions.RoleGrant{
				Role:        g.Role,
				Operations:  permissions.NewOperationSet(ops...),
				AccessLevel: g.AccessLevel,
				OwnerOnly:   g.OwnerOnly,
				Condition:   g.Condition,
			})
		}
		store.SetRoleGrants(doctype, grants)

		entries := make([]permissions.FieldAccessEntry, 0, len(dt.Fields))
		for _, fl := range dt.Fields {
			entries = append(entries, permissions.FieldAccessEntry{
				Field:       fl.Field,
				AccessLevel: fl.AccessLevel,
				Readable:    fl.Readable == nil || *fl.Readable,
				Writable:    fl.Writable == nil || *fl.Writable,
			})
		}
		if len(entries) > 0 {
			store.SetFieldAccess(doctype, entries)
		}
	}
	for _, r := range f.Restrictions {
		store.AddUserRestriction(permissions.UserRestriction{
			User:               r.User,
			RestrictionDoctype: r.RestrictionDoctype,
			Value:              r.Value,
			AppliesTo:          r.AppliesTo,
			IsDefault:          r.IsDefault,
		})
	}
	return nil
}
