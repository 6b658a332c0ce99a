/*-------------------------------------------------------------------------
 *
 * table.go
 *    Tool-result table rendering
 *
 * Formats heterogeneous query rows returned by the agent into a tabular
 * view with per-column semantic formatting. Render is a pure function:
 * the same rows always produce the same columns, order, and cells.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/render/table.go
 *
 *-------------------------------------------------------------------------
 */

package render

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	/* DefaultMaxRows caps the displayed rows; display concern only */
	DefaultMaxRows = 10

	maxCellChars = 60
	emptyCell    = "—"
)

/* Row is one result row keyed by column name */
type Row map[string]interface{}

type ColumnKind string

const (
	KindText     ColumnKind = "text"
	KindDate     ColumnKind = "date"
	KindDateTime ColumnKind = "datetime"
	KindCurrency ColumnKind = "currency"
	KindBadge    ColumnKind = "badge"
	KindBool     ColumnKind = "bool"
)

type Column struct {
	Key   string     `json:"chave"`
	Label string     `json:"rotulo"`
	Kind  ColumnKind `json:"tipo"`
}

type Cell struct {
	Text  string `json:"texto"`
	Color string `json:"cor,omitempty"`
}

type TabularView struct {
	Columns    []Column `json:"colunas"`
	Rows       [][]Cell `json:"linhas"`
	TotalRows  int      `json:"total_linhas"`
	HiddenRows int      `json:"linhas_ocultas"`
	Summary    string   `json:"resumo,omitempty"`
}

type Options struct {
	MaxRows int
}

/* Internal and bookkeeping columns are never displayed */
var deniedColumns = map[string]bool{
	"id":             true,
	"tenant_id":      true,
	"escritorio_id":  true,
	"user_id":        true,
	"usuario_id":     true,
	"created_by":     true,
	"criado_por":     true,
	"created_at":     true,
	"updated_at":     true,
	"criado_em":      true,
	"atualizado_em":  true,
	"deleted_at":     true,
}

/* Column label dictionary; unknown columns fall back to a humanized name */
var columnLabels = map[string]string{
	"nome":            "Nome",
	"titulo":          "Título",
	"descricao":       "Descrição",
	"status":          "Status",
	"prioridade":      "Prioridade",
	"area":            "Área",
	"tipo":            "Tipo",
	"email":           "E-mail",
	"telefone":        "Telefone",
	"cpf_cnpj":        "CPF/CNPJ",
	"numero_processo": "Nº do Processo",
	"valor":           "Valor",
	"valor_causa":     "Valor da Causa",
	"honorarios":      "Honorários",
	"data_inicio":     "Início",
	"data_vencimento": "Vencimento",
	"data_audiencia":  "Audiência",
	"responsavel":     "Responsável",
	"cliente":         "Cliente",
	"observacoes":     "Observações",
	"concluido":       "Concluído",
	"ativo":           "Ativo",
}

/* Preferred column ordering; columns outside the list follow alphabetically */
var preferredOrder = []string{
	"nome", "titulo", "cliente", "numero_processo", "descricao",
	"status", "prioridade", "area", "tipo",
	"valor", "valor_causa", "honorarios",
	"data_inicio", "data_vencimento", "data_audiencia",
	"responsavel", "email", "telefone",
}

/* Badge palette keyed by value; unknown values fall back to gray */
var badgePalette = map[string]string{
	"ativo":        "green",
	"concluido":    "green",
	"ganho":        "green",
	"em_andamento": "blue",
	"pendente":     "yellow",
	"aguardando":   "yellow",
	"suspenso":     "orange",
	"arquivado":    "gray",
	"cancelado":    "red",
	"perdido":      "red",
	"urgente":      "red",
	"alta":         "orange",
	"media":        "yellow",
	"baixa":        "blue",
	"civel":        "blue",
	"trabalhista":  "purple",
	"tributario":   "teal",
	"criminal":     "red",
	"familia":      "pink",
	"empresarial":  "indigo",
}

var badgeColumns = map[string]bool{
	"status":     true,
	"prioridade": true,
	"area":       true,
	"tipo":       true,
	"fase":       true,
}

var currencyColumns = map[string]bool{
	"valor":       true,
	"valor_causa": true,
	"honorarios":  true,
	"saldo":       true,
	"preco":       true,
}

/* Render formats rows with default options */
func Render(rows []Row) TabularView {
	return RenderWithOptions(rows, Options{MaxRows: DefaultMaxRows})
}

/* RenderWithOptions formats rows into a tabular view.
 *
 * The row cap affects display only; callers operating on the result set
 * (bulk actions) must use the rows themselves, never the view. */
func RenderWithOptions(rows []Row, opts Options) TabularView {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if len(rows) == 0 {
		return TabularView{}
	}

	columns := visibleColumns(rows[0])
	view := TabularView{
		Columns:   columns,
		TotalRows: len(rows),
	}

	displayed := rows
	if len(displayed) > opts.MaxRows {
		displayed = displayed[:opts.MaxRows]
		view.HiddenRows = len(rows) - opts.MaxRows
		view.Summary = fmt.Sprintf("+ %d registros não exibidos", view.HiddenRows)
	}

	view.Rows = make([][]Cell, 0, len(displayed))
	for _, row := range displayed {
		cells := make([]Cell, 0, len(columns))
		for _, col := range columns {
			value, ok := row[col.Key]
			if !ok {
				cells = append(cells, Cell{Text: emptyCell})
				continue
			}
			cells = append(cells, formatCell(col, value))
		}
		view.Rows = append(view.Rows, cells)
	}
	return view
}

/* visibleColumns derives the column set from the first row */
func visibleColumns(first Row) []Column {
	present := make(map[string]bool, len(first))
	for key := range first {
		if !deniedColumns[key] {
			present[key] = true
		}
	}

	ordered := make([]string, 0, len(present))
	for _, key := range preferredOrder {
		if present[key] {
			ordered = append(ordered, key)
			delete(present, key)
		}
	}
	rest := make([]string, 0, len(present))
	for key := range present {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)

	columns := make([]Column, 0, len(ordered))
	for _, key := range ordered {
		columns = append(columns, Column{
			Key:   key,
			Label: columnLabel(key),
			Kind:  columnKind(key, first[key]),
		})
	}
	return columns
}

func columnLabel(key string) string {
	if label, ok := columnLabels[key]; ok {
		return label
	}
	return humanize(key)
}

/* humanize turns raw_column_name into "Raw Column Name" */
func humanize(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func columnKind(key string, sample interface{}) ColumnKind {
	switch {
	case badgeColumns[key]:
		return KindBadge
	case currencyColumns[key] || strings.HasPrefix(key, "valor_"):
		return KindCurrency
	case isDateColumn(key):
		if _, hasTime, ok := parseDate(fmt.Sprintf("%v", sample)); ok && hasTime {
			return KindDateTime
		}
		return KindDate
	}
	if _, ok := sample.(bool); ok {
		return KindBool
	}
	return KindText
}

func isDateColumn(key string) bool {
	return strings.HasPrefix(key, "data_") || key == "data" ||
		strings.HasSuffix(key, "_em") || strings.HasSuffix(key, "_at")
}

/* parseDate parses ISO date forms; hasTime reports a time component */
func parseDate(s string) (t time.Time, hasTime bool, ok bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true, true
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, true, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}

func formatCell(col Column, value interface{}) Cell {
	if value == nil {
		return Cell{Text: emptyCell}
	}

	switch col.Kind {
	case KindBadge:
		text := fmt.Sprintf("%v", value)
		color, ok := badgePalette[strings.ToLower(text)]
		if !ok {
			color = "gray"
		}
		return Cell{Text: text, Color: color}
	case KindCurrency:
		if amount, ok := toFloat(value); ok {
			return Cell{Text: formatCurrency(amount)}
		}
	case KindDate, KindDateTime:
		if s, isString := value.(string); isString {
			if t, hasTime, ok := parseDate(s); ok {
				if hasTime {
					return Cell{Text: t.Format("02/01/2006 15:04")}
				}
				return Cell{Text: t.Format("02/01/2006")}
			}
		}
	case KindBool:
		if b, ok := value.(bool); ok {
			if b {
				return Cell{Text: "Sim"}
			}
			return Cell{Text: "Não"}
		}
	}

	switch v := value.(type) {
	case bool:
		if v {
			return Cell{Text: "Sim"}
		}
		return Cell{Text: "Não"}
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return Cell{Text: truncate(strings.Join(parts, ", "))}
	default:
		return Cell{Text: truncate(fmt.Sprintf("%v", value))}
	}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxCellChars {
		return s
	}
	return string(runes[:maxCellChars-1]) + "…"
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

/* formatCurrency renders a BRL amount: R$ 1.234,56 */
func formatCurrency(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	cents := int64(math.Round(amount * 100))
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped.String(), frac)
}
