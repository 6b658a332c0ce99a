/*-------------------------------------------------------------------------
 *
 * diff_test.go
 *    Tests for update preview diff computation
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/stager/diff_test.go
 *
 *-------------------------------------------------------------------------
 */

package stager

import "testing"

func changedFields(changes []FieldChange) map[string]bool {
	fields := make(map[string]bool, len(changes))
	for _, c := range changes {
		fields[c.Field] = true
	}
	return fields
}

/* TestDiffFlagsOnlyChangedKeys compares serialized forms, not identity */
func TestDiffFlagsOnlyChangedKeys(t *testing.T) {
	antes := map[string]interface{}{
		"id":     "10",
		"nome":   "Acme Advogados",
		"valor":  1500.0,
		"tags":   []interface{}{"civel", "urgente"},
		"extras": map[string]interface{}{"uf": "SP", "cidade": "Campinas"},
	}
	depois := map[string]interface{}{
		"id":     "10",
		"nome":   "Acme Sociedade de Advogados",
		"valor":  1500.0,
		"tags":   []interface{}{"civel", "urgente"},
		"extras": map[string]interface{}{"cidade": "Campinas", "uf": "SP"},
	}

	changes := ComputeChanges(antes, depois)
	fields := changedFields(changes)

	if len(changes) != 1 || !fields["nome"] {
		t.Fatalf("expected only 'nome' flagged, got %v", fields)
	}
}

/* TestDiffDeepEqualCollections never flags deep-equal arrays and objects */
func TestDiffDeepEqualCollections(t *testing.T) {
	antes := map[string]interface{}{
		"partes": []interface{}{
			map[string]interface{}{"nome": "Autor", "papel": "requerente"},
		},
	}
	depois := map[string]interface{}{
		"partes": []interface{}{
			map[string]interface{}{"papel": "requerente", "nome": "Autor"},
		},
	}
	if changes := ComputeChanges(antes, depois); len(changes) != 0 {
		t.Errorf("expected no changes for deep-equal collections, got %v", changes)
	}
}

/* TestDiffNewAndChangedValues */
func TestDiffNewAndChangedValues(t *testing.T) {
	antes := map[string]interface{}{"status": "ativo", "prioridade": "baixa"}
	depois := map[string]interface{}{"status": "arquivado", "prioridade": "baixa", "motivo": "encerrado"}

	changes := ComputeChanges(antes, depois)
	fields := changedFields(changes)

	if len(changes) != 2 || !fields["status"] || !fields["motivo"] {
		t.Fatalf("expected 'status' and 'motivo' flagged, got %v", fields)
	}
	for _, c := range changes {
		if c.Field == "status" {
			if c.Antes != "ativo" || c.Depois != "arquivado" {
				t.Errorf("unexpected status change values: %+v", c)
			}
		}
	}
}

/* TestDiffNumericSerializationDiffers */
func TestDiffNumericSerializationDiffers(t *testing.T) {
	antes := map[string]interface{}{"valor": 100.0}
	depois := map[string]interface{}{"valor": 100.5}
	if changes := ComputeChanges(antes, depois); len(changes) != 1 {
		t.Errorf("expected one change for numeric difference, got %v", changes)
	}

	antes = map[string]interface{}{"valor": 100.0}
	depois = map[string]interface{}{"valor": 100.0}
	if changes := ComputeChanges(antes, depois); len(changes) != 0 {
		t.Errorf("expected no change for equal numbers, got %v", changes)
	}
}

/* TestDiffNilValues */
func TestDiffNilValues(t *testing.T) {
	antes := map[string]interface{}{"observacao": nil}
	depois := map[string]interface{}{"observacao": nil, "nova": nil}
	if changes := ComputeChanges(antes, depois); len(changes) != 0 {
		t.Errorf("expected no changes for nil-to-nil fields, got %v", changes)
	}

	depois = map[string]interface{}{"observacao": "preenchida"}
	changes := ComputeChanges(antes, depois)
	if len(changes) != 1 || changes[0].Field != "observacao" {
		t.Errorf("expected 'observacao' flagged, got %v", changes)
	}
}
