/*-------------------------------------------------------------------------
 *
 * table_test.go
 *    Tests for tool-result table rendering
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/render/table_test.go
 *
 *-------------------------------------------------------------------------
 */

package render

import (
	"reflect"
	"strings"
	"testing"
)

func sampleRows() []Row {
	return []Row{
		{
			"id":              "1",
			"tenant_id":       "t1",
			"created_at":      "2026-01-10T08:30:00Z",
			"nome":            "Acme Advogados",
			"status":          "ativo",
			"valor":           15340.5,
			"data_vencimento": "2026-02-01",
			"concluido":       false,
			"tags":            []interface{}{"civel", "urgente"},
		},
		{
			"id":     "2",
			"nome":   "Beta Consultoria",
			"status": "arquivado",
			"valor":  900.0,
		},
	}
}

/* TestRenderDeterminism asserts identical output on repeated calls */
func TestRenderDeterminism(t *testing.T) {
	rows := sampleRows()
	first := Render(rows)
	second := Render(rows)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical views on repeated render calls")
	}
}

/* TestDenyListSuppressed hides bookkeeping columns regardless of table */
func TestDenyListSuppressed(t *testing.T) {
	view := Render(sampleRows())
	for _, col := range view.Columns {
		if col.Key == "id" || col.Key == "tenant_id" || col.Key == "created_at" {
			t.Errorf("denied column '%s' was rendered", col.Key)
		}
	}
}

/* TestColumnLabels translates known columns and humanizes unknown ones */
func TestColumnLabels(t *testing.T) {
	view := Render([]Row{{"nome": "X", "campo_customizado": "Y"}})
	labels := map[string]string{}
	for _, col := range view.Columns {
		labels[col.Key] = col.Label
	}
	if labels["nome"] != "Nome" {
		t.Errorf("expected dictionary label for nome, got '%s'", labels["nome"])
	}
	if labels["campo_customizado"] != "Campo Customizado" {
		t.Errorf("expected humanized fallback, got '%s'", labels["campo_customizado"])
	}
}

func cellFor(t *testing.T, view TabularView, rowIdx int, key string) Cell {
	t.Helper()
	for i, col := range view.Columns {
		if col.Key == key {
			return view.Rows[rowIdx][i]
		}
	}
	t.Fatalf("column '%s' not found", key)
	return Cell{}
}

/* TestSemanticFormatting checks currency, date, badge, and bool cells */
func TestSemanticFormatting(t *testing.T) {
	view := Render(sampleRows())

	if got := cellFor(t, view, 0, "valor").Text; got != "R$ 15.340,50" {
		t.Errorf("expected currency formatting, got '%s'", got)
	}
	if got := cellFor(t, view, 0, "data_vencimento").Text; got != "01/02/2026" {
		t.Errorf("expected localized date, got '%s'", got)
	}
	badge := cellFor(t, view, 0, "status")
	if badge.Text != "ativo" || badge.Color != "green" {
		t.Errorf("expected green 'ativo' badge, got %+v", badge)
	}
	badge = cellFor(t, view, 1, "status")
	if badge.Color != "gray" {
		t.Errorf("expected gray badge for arquivado, got %+v", badge)
	}
	if got := cellFor(t, view, 0, "concluido").Text; got != "Não" {
		t.Errorf("expected 'Não' for false boolean, got '%s'", got)
	}
	if got := cellFor(t, view, 0, "tags").Text; got != "civel, urgente" {
		t.Errorf("expected joined array, got '%s'", got)
	}
}

/* TestMissingKeysRenderEmpty renders the neutral placeholder for absent cells */
func TestMissingKeysRenderEmpty(t *testing.T) {
	view := Render(sampleRows())
	if got := cellFor(t, view, 1, "data_vencimento").Text; got != "—" {
		t.Errorf("expected placeholder for missing cell, got '%s'", got)
	}
	if got := cellFor(t, view, 1, "concluido").Text; got != "—" {
		t.Errorf("expected placeholder for missing boolean, got '%s'", got)
	}
}

/* TestRowCap caps displayed rows and reports the remainder */
func TestRowCap(t *testing.T) {
	rows := make([]Row, 25)
	for i := range rows {
		rows[i] = Row{"nome": "Cliente"}
	}

	view := RenderWithOptions(rows, Options{MaxRows: 10})
	if len(view.Rows) != 10 {
		t.Errorf("expected 10 displayed rows, got %d", len(view.Rows))
	}
	if view.TotalRows != 25 {
		t.Errorf("expected total of 25, got %d", view.TotalRows)
	}
	if view.HiddenRows != 15 {
		t.Errorf("expected 15 hidden rows, got %d", view.HiddenRows)
	}
	if !strings.Contains(view.Summary, "15") {
		t.Errorf("expected summary to state hidden count, got '%s'", view.Summary)
	}
}

/* TestLongStringsTruncate */
func TestLongStringsTruncate(t *testing.T) {
	long := strings.Repeat("a", 200)
	view := Render([]Row{{"observacoes": long}})
	got := cellFor(t, view, 0, "observacoes").Text
	if len([]rune(got)) != maxCellChars {
		t.Errorf("expected truncation to %d chars, got %d", maxCellChars, len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got '%s'", got)
	}
}

/* TestEmptyRows */
func TestEmptyRows(t *testing.T) {
	view := Render(nil)
	if len(view.Columns) != 0 || len(view.Rows) != 0 || view.TotalRows != 0 {
		t.Errorf("expected empty view for no rows, got %+v", view)
	}
}
