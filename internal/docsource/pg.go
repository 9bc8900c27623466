// Package docsource provides Postgres-backed implementations of the
// evaluator's collaborator contracts: the async document lookup used for
// ownership checks and the synchronous field-metadata lookup.
package docsource

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/docperm/pkg/permissions"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGSource reads document snapshots from docperm.documents and field access
// levels from docperm.field_levels. Both tables are consulted read-only.
type PGSource struct {
	pool pgQuerier
}

func NewPGSource(pool pgQuerier) *PGSource {
	return &PGSource{pool: pool}
}

// GetDocument returns nil with no error when the document does not exist;
// absence is the evaluator's permissive default, not a failure.
func (s *PGSource) GetDocument(ctx context.Context, doctype string, name string) (*permissions.SubjectDocument, error) {
	doctype = strings.TrimSpace(doctype)
	name = strings.TrimSpace(name)
	if doctype == "" || name == "" {
		return nil, errors.New("docsource: doctype and name are required")
	}

	var owner, status string
	err := s.pool.QueryRow(ctx, `
SELECT owner_user, status
FROM docperm.documents
WHERE doctype = $1 AND name = $2;`, doctype, name).Scan(&owner, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &permissions.SubjectDocument{
		Doctype: doctype,
		Name:    name,
		Owner:   owner,
		Status:  status,
	}, nil
}

// FieldAccessLevels satisfies permissions.MetadataSource. The contract is
// synchronous, so the query runs under a background context.
func (s *PGSource) FieldAccessLevels(doctype string) ([]permissions.FieldAccessEntry, error) {
	doctype = strings.TrimSpace(doctype)
	if doctype == "" {
		return nil, errors.New("docsource: doctype is required")
	}

	rows, err := s.pool.Query(context.Background(), `
SELECT field_name, access_level
FROM docperm.field_levels
WHERE doctype = $1
ORDER BY field_name;`, doctype)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []permissions.FieldAccessEntry{}
	for rows.Next() {
		var field string
		var level int
		if err := rows.Scan(&field, &level); err != nil {
			return nil, err
		}
		out = append(out, permissions.FieldAccessEntry{
			Field:       field,
			AccessLevel: level,
			Readable:    true,
			Writable:    true,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
