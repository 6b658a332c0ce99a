/*-------------------------------------------------------------------------
 *
 * postgres.go
 *    PostgreSQL-backed tenant-scoped data store
 *
 * Builds parameterized statements from the dynamic row payloads proposed
 * by the agent. Table and column identifiers are validated against a
 * strict pattern before they reach SQL text; values always travel as
 * bind parameters.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/datastore/postgres.go
 *
 *-------------------------------------------------------------------------
 */

package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const tenantColumn = "tenant_id"

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

/* PostgresStore implements Store over the tenant schema */
type PostgresStore struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresStore(db *sqlx.DB, schema string) *PostgresStore {
	if schema == "" {
		schema = "public"
	}
	return &PostgresStore{db: db, schema: schema}
}

/* Insert creates a record from the proposed payload */
func (s *PostgresStore) Insert(ctx context.Context, tenantID, table string, dados map[string]interface{}) error {
	if err := validateIdentifier(table); err != nil {
		return fmt.Errorf("insert rejected: table='%s', error=%w", table, err)
	}
	if len(dados) == 0 {
		return fmt.Errorf("insert rejected: table='%s', empty_payload=true, error=%w", table, ErrValidation)
	}

	columns := sortedKeys(dados)
	for _, col := range columns {
		if err := validateIdentifier(col); err != nil {
			return fmt.Errorf("insert rejected: table='%s', column='%s', error=%w", table, col, err)
		}
	}

	colNames := []string{tenantColumn}
	placeholders := []string{"$1"}
	args := []interface{}{tenantID}
	for i, col := range columns {
		colNames = append(colNames, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, bindValue(dados[col]))
	}

	query := fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES (%s)",
		s.schema, table, strings.Join(colNames, ", "), strings.Join(placeholders, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert failed: table='%s', columns=%d, error=%w", table, len(columns), classify(err))
	}
	return nil
}

/* Update applies the proposed snapshot to the row identified by antes */
func (s *PostgresStore) Update(ctx context.Context, tenantID, table string, antes, depois map[string]interface{}) error {
	if err := validateIdentifier(table); err != nil {
		return fmt.Errorf("update rejected: table='%s', error=%w", table, err)
	}
	id, ok := recordID(antes)
	if !ok {
		return fmt.Errorf("update rejected: table='%s', missing_id=true, error=%w", table, ErrValidation)
	}

	columns := sortedKeys(depois)
	setClauses := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+2)
	i := 1
	for _, col := range columns {
		if col == "id" || col == tenantColumn {
			continue
		}
		if err := validateIdentifier(col); err != nil {
			return fmt.Errorf("update rejected: table='%s', column='%s', error=%w", table, col, err)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, bindValue(depois[col]))
		i++
	}
	if len(setClauses) == 0 {
		return fmt.Errorf("update rejected: table='%s', no_updatable_columns=true, error=%w", table, ErrValidation)
	}

	query := fmt.Sprintf("UPDATE %s.%s SET %s WHERE id = $%d AND %s = $%d",
		s.schema, table, strings.Join(setClauses, ", "), i, tenantColumn, i+1)
	args = append(args, id, tenantID)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update failed: table='%s', id='%v', error=%w", table, id, classify(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update failed (rows affected): table='%s', id='%v', error=%w", table, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("update failed: table='%s', id='%v', error=%w", table, id, ErrNotFound)
	}
	return nil
}

/* Delete removes the row identified by registro */
func (s *PostgresStore) Delete(ctx context.Context, tenantID, table string, registro map[string]interface{}) error {
	if err := validateIdentifier(table); err != nil {
		return fmt.Errorf("delete rejected: table='%s', error=%w", table, err)
	}
	id, ok := recordID(registro)
	if !ok {
		return fmt.Errorf("delete rejected: table='%s', missing_id=true, error=%w", table, ErrValidation)
	}

	query := fmt.Sprintf("DELETE FROM %s.%s WHERE id = $1 AND %s = $2", s.schema, table, tenantColumn)
	result, err := s.db.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete failed: table='%s', id='%v', error=%w", table, id, classify(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete failed (rows affected): table='%s', id='%v', error=%w", table, id, err)
	}
	if rows == 0 {
		/* The row vanished between staging and confirmation */
		return fmt.Errorf("delete failed: table='%s', id='%v', error=%w", table, id, ErrNotFound)
	}
	return nil
}

func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier '%s': %w", name, ErrValidation)
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func recordID(m map[string]interface{}) (interface{}, bool) {
	id, ok := m["id"]
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

/* bindValue flattens composite values to JSON for bind parameters */
func bindValue(v interface{}) interface{} {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return data
	default:
		return v
	}
}

/* classify maps driver errors onto the mutation error taxonomy */
func classify(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}
	switch {
	case pqErr.Code == "42501":
		return fmt.Errorf("%v: %w", pqErr.Message, ErrPermissionDenied)
	case pqErr.Code.Class() == "23" || pqErr.Code.Class() == "22":
		/* integrity constraint or data exception */
		return fmt.Errorf("%v: %w", pqErr.Message, ErrValidation)
	case pqErr.Code == "42P01" || pqErr.Code == "42703":
		/* undefined table or column */
		return fmt.Errorf("%v: %w", pqErr.Message, ErrValidation)
	default:
		return err
	}
}
