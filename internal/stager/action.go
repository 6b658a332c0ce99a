/*-------------------------------------------------------------------------
 *
 * action.go
 *    Pending action model
 *
 * A PendingAction is a staged, not-yet-applied mutation proposed by the
 * agent. Exactly one of dados, (antes and depois), registro is populated,
 * consistent with the action kind.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/stager/action.go
 *
 *-------------------------------------------------------------------------
 */

package stager

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusPresented Status = "presented"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrInvalidAction         = errors.New("invalid proposed action")
	ErrNotPresented          = errors.New("action is not the presented one")
	ErrDeleteNotAcknowledged = errors.New("delete requires double confirmation")
)

/* ProposedAction is a mutation as proposed by the agent */
type ProposedAction struct {
	Kind        Kind                   `json:"tipo"`
	Table       string                 `json:"tabela"`
	Explanation string                 `json:"explicacao"`
	Dados       map[string]interface{} `json:"dados,omitempty"`
	Antes       map[string]interface{} `json:"antes,omitempty"`
	Depois      map[string]interface{} `json:"depois,omitempty"`
	Registro    map[string]interface{} `json:"registro,omitempty"`
}

/* Validate checks the payload shape against the action kind */
func (a *ProposedAction) Validate() error {
	if a.Table == "" {
		return fmt.Errorf("proposed action missing table: %w", ErrInvalidAction)
	}
	switch a.Kind {
	case KindInsert:
		if a.Dados == nil || a.Antes != nil || a.Depois != nil || a.Registro != nil {
			return fmt.Errorf("insert action must carry dados only: table='%s', %w", a.Table, ErrInvalidAction)
		}
	case KindUpdate:
		if a.Antes == nil || a.Depois == nil || a.Dados != nil || a.Registro != nil {
			return fmt.Errorf("update action must carry antes and depois only: table='%s', %w", a.Table, ErrInvalidAction)
		}
	case KindDelete:
		if a.Registro == nil || a.Dados != nil || a.Antes != nil || a.Depois != nil {
			return fmt.Errorf("delete action must carry registro only: table='%s', %w", a.Table, ErrInvalidAction)
		}
	default:
		return fmt.Errorf("unknown action kind '%s': %w", a.Kind, ErrInvalidAction)
	}
	return nil
}

/* FieldChange is one changed field surfaced in the update preview */
type FieldChange struct {
	Field  string      `json:"campo"`
	Antes  interface{} `json:"antes"`
	Depois interface{} `json:"depois"`
}

/* PendingAction is a staged action awaiting user disposition */
type PendingAction struct {
	ID            uuid.UUID      `json:"id"`
	SessionID     uuid.UUID      `json:"sessao_id"`
	TenantID      string         `json:"-"`
	Proposed      ProposedAction `json:"acao"`
	Changes       []FieldChange  `json:"alteracoes,omitempty"`
	Status        Status         `json:"status"`
	DoubleConfirm bool           `json:"dupla_confirmacao"`
	ProposedAt    time.Time      `json:"proposta_em"`
}
