package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML catalog from path and validates it.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document and validates it.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Marshal renders the catalog as YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Querier is the subset of pgxpool.Pool used by LoadPostgres.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadPostgres reads the catalog tables:
//
//	departments(name, position)
//	department_skills(department, skill, position)
//	managers(name, department, position)
//	relationships(name, position)
//
// The tables are read-only reference data; nothing is ever written back.
func LoadPostgres(ctx context.Context, q Querier) (*Catalog, error) {
	c := &Catalog{Skills: map[string][]string{}}

	depts, err := queryStrings(ctx, q, `SELECT name FROM departments ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}
	c.Departments = depts

	rows, err := q.Query(ctx, `SELECT department, skill FROM department_skills ORDER BY department, position, skill`)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	for rows.Next() {
		var dept, skill string
		if err := rows.Scan(&dept, &skill); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		c.Skills[dept] = append(c.Skills[dept], skill)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT name, department FROM managers ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("load managers: %w", err)
	}
	for rows.Next() {
		var m Manager
		if err := rows.Scan(&m.Name, &m.Department); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan manager: %w", err)
		}
		c.Managers = append(c.Managers, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load managers: %w", err)
	}

	rels, err := queryStrings(ctx, q, `SELECT name FROM relationships ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	c.Relationships = rels

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func queryStrings(ctx context.Context, q Querier, sql string) ([]string, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
