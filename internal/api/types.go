/*-------------------------------------------------------------------------
 *
 * types.go
 *    Request and response DTOs for the Centro de Comando API
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/api/types.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
	"github.com/victorbarbieri91/zyra-comando/internal/render"
	"github.com/victorbarbieri91/zyra-comando/internal/stager"
)

/* Requests */

type SendMessageRequest struct {
	Texto string `json:"texto"`
}

type CreateSessionRequest struct {
	Titulo string `json:"titulo,omitempty"`
}

type SwitchSessionRequest struct {
	SessaoID uuid.UUID `json:"sessao_id"`
}

type ConfirmActionRequest struct {
	DuplaConfirmacao bool `json:"dupla_confirmacao"`
}

type FeedbackRequest struct {
	Tipo     string  `json:"tipo"`
	Correcao *string `json:"correcao,omitempty"`
}

/* Responses */

type SessionResponse struct {
	ID                uuid.UUID `json:"id"`
	Titulo            string    `json:"titulo"`
	Ativa             bool      `json:"ativa"`
	Arquivada         bool      `json:"arquivada"`
	CriadaEm          time.Time `json:"criada_em"`
	UltimaAtividadeEm time.Time `json:"ultima_atividade_em"`
}

type RenderedResult struct {
	Tabela   string             `json:"tabela"`
	Consulta string             `json:"consulta,omitempty"`
	Visao    render.TabularView `json:"visao"`
}

type MessageResponse struct {
	ID         int64            `json:"id"`
	SessaoID   uuid.UUID        `json:"sessao_id"`
	Papel      string           `json:"papel"`
	Conteudo   *string          `json:"conteudo,omitempty"`
	Erro       *string          `json:"erro,omitempty"`
	Carregando bool             `json:"carregando"`
	Resultados []RenderedResult `json:"resultados,omitempty"`
	CriadoEm   time.Time        `json:"criado_em"`
}

type TurnResponse struct {
	Sessao       SessionResponse       `json:"sessao"`
	Mensagem     MessageResponse       `json:"mensagem"`
	Resposta     MessageResponse       `json:"resposta"`
	AcaoPendente *stager.PendingAction `json:"acao_pendente,omitempty"`
}

type FeedbackResponse struct {
	MensagemID int64     `json:"mensagem_id"`
	Tipo       string    `json:"tipo"`
	Correcao   *string   `json:"correcao,omitempty"`
	CriadoEm   time.Time `json:"criado_em"`
}

type ActionOutcomeResponse struct {
	Acao      *stager.PendingAction `json:"acao"`
	Executada bool                  `json:"executada"`
	Erro      string                `json:"erro,omitempty"`
	Proxima   *stager.PendingAction `json:"proxima,omitempty"`
}

type ActionRecordResponse struct {
	ID          uuid.UUID   `json:"id"`
	SessaoID    uuid.UUID   `json:"sessao_id"`
	Tipo        string      `json:"tipo"`
	Tabela      string      `json:"tabela"`
	Explicacao  string      `json:"explicacao"`
	Payload     db.JSONBMap `json:"payload,omitempty"`
	Status      string      `json:"status"`
	Erro        *string     `json:"erro,omitempty"`
	CriadaEm    time.Time   `json:"criada_em"`
	ResolvidaEm *time.Time  `json:"resolvida_em,omitempty"`
}

/* Converters */

func toSessionResponse(s *db.Session) SessionResponse {
	return SessionResponse{
		ID:                s.ID,
		Titulo:            s.Title,
		Ativa:             s.Active,
		Arquivada:         s.Archived,
		CriadaEm:          s.CreatedAt,
		UltimaAtividadeEm: s.LastActivityAt,
	}
}

func (h *Handlers) toMessageResponse(m *db.Message) MessageResponse {
	resp := MessageResponse{
		ID:         m.ID,
		SessaoID:   m.SessionID,
		Papel:      m.Role,
		Conteudo:   m.Content,
		Erro:       m.ErrorText,
		Carregando: m.Loading,
		CriadoEm:   m.CreatedAt,
	}

	for _, tr := range m.ToolResults {
		rows := make([]render.Row, len(tr.Linhas))
		for i, linha := range tr.Linhas {
			rows[i] = render.Row(linha)
		}
		resp.Resultados = append(resp.Resultados, RenderedResult{
			Tabela:   tr.Tabela,
			Consulta: tr.Consulta,
			Visao:    render.RenderWithOptions(rows, render.Options{MaxRows: h.maxRenderRows}),
		})
	}
	return resp
}

func toFeedbackResponse(f *db.FeedbackRecord) FeedbackResponse {
	return FeedbackResponse{
		MensagemID: f.MessageID,
		Tipo:       f.Kind,
		Correcao:   f.Correction,
		CriadoEm:   f.CreatedAt,
	}
}

func toActionRecordResponse(r *db.ActionRecord) ActionRecordResponse {
	return ActionRecordResponse{
		ID:          r.ID,
		SessaoID:    r.SessionID,
		Tipo:        r.Kind,
		Tabela:      r.TargetTable,
		Explicacao:  r.Explanation,
		Payload:     r.Payload,
		Status:      r.Status,
		Erro:        r.ErrorText,
		CriadaEm:    r.CreatedAt,
		ResolvidaEm: r.ResolvedAt,
	}
}
