/*-------------------------------------------------------------------------
 *
 * errors.go
 *    API error types and HTTP status mapping
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/api/errors.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/victorbarbieri91/zyra-comando/internal/agentclient"
	"github.com/victorbarbieri91/zyra-comando/internal/db"
	"github.com/victorbarbieri91/zyra-comando/internal/humanloop"
	"github.com/victorbarbieri91/zyra-comando/internal/orchestrator"
	"github.com/victorbarbieri91/zyra-comando/internal/stager"
)

/* APIError carries an HTTP status with a stable machine-readable code */
type APIError struct {
	Status    int
	Code      string
	Message   string
	Err       error
	RequestID string
}

func (e *APIError) Error() string {
	return e.Message
}

/* ErrorResponse is the JSON body sent for every error */
type ErrorResponse struct {
	Error   string `json:"erro"`
	Code    string `json:"codigo"`
	Message string `json:"detalhe,omitempty"`
}

func NewError(status int, code, message string, err error) *APIError {
	return &APIError{Status: status, Code: code, Message: message, Err: err}
}

var (
	ErrNotFound     = NewError(http.StatusNotFound, "not_found", "recurso não encontrado", nil)
	ErrUnauthorized = NewError(http.StatusUnauthorized, "unauthorized", "credenciais inválidas", nil)
)

/* WrapError attaches a request ID without mutating the shared sentinel */
func WrapError(base *APIError, requestID string) *APIError {
	copied := *base
	copied.RequestID = requestID
	return &copied
}

/* mapDomainError translates domain sentinels into the API error taxonomy */
func mapDomainError(err error, requestID string) *APIError {
	switch {
	case errors.Is(err, orchestrator.ErrEmptyMessage):
		return &APIError{Status: http.StatusBadRequest, Code: "mensagem_vazia",
			Message: "a mensagem não pode ser vazia", Err: err, RequestID: requestID}
	case errors.Is(err, orchestrator.ErrTurnInFlight):
		return &APIError{Status: http.StatusConflict, Code: "turno_em_andamento",
			Message: "aguarde a resposta anterior antes de enviar outra mensagem", Err: err, RequestID: requestID}
	case errors.Is(err, orchestrator.ErrStaleResponse):
		return &APIError{Status: http.StatusConflict, Code: "stale_response",
			Message: "a resposta foi descartada porque a conversa mudou", Err: err, RequestID: requestID}
	case errors.Is(err, stager.ErrDeleteNotAcknowledged):
		return &APIError{Status: http.StatusConflict, Code: "dupla_confirmacao_exigida",
			Message: "exclusões exigem confirmação explícita", Err: err, RequestID: requestID}
	case errors.Is(err, stager.ErrNotPresented):
		return &APIError{Status: http.StatusConflict, Code: "acao_nao_apresentada",
			Message: "apenas a ação apresentada pode ser confirmada ou cancelada", Err: err, RequestID: requestID}
	case errors.Is(err, stager.ErrInvalidAction):
		return &APIError{Status: http.StatusBadRequest, Code: "acao_invalida",
			Message: "a ação proposta é inválida", Err: err, RequestID: requestID}
	case errors.Is(err, db.ErrFeedbackConflict):
		return &APIError{Status: http.StatusConflict, Code: "feedback_conflict",
			Message: "esta resposta já recebeu feedback", Err: err, RequestID: requestID}
	case errors.Is(err, humanloop.ErrInvalidTarget),
		errors.Is(err, humanloop.ErrInvalidKind),
		errors.Is(err, humanloop.ErrMissingText):
		return &APIError{Status: http.StatusBadRequest, Code: "feedback_invalido",
			Message: err.Error(), Err: err, RequestID: requestID}
	case errors.Is(err, db.ErrSessionNotActive):
		return &APIError{Status: http.StatusConflict, Code: "sessao_inativa",
			Message: "a sessão não está ativa", Err: err, RequestID: requestID}
	case errors.Is(err, db.ErrNoActiveSession):
		return &APIError{Status: http.StatusNotFound, Code: "sem_sessao_ativa",
			Message: "nenhuma sessão ativa", Err: err, RequestID: requestID}
	case errors.Is(err, db.ErrNotFound):
		return WrapError(ErrNotFound, requestID)
	case errors.Is(err, agentclient.ErrAgentUnavailable):
		return &APIError{Status: http.StatusBadGateway, Code: "agent_unavailable",
			Message: "o assistente está indisponível no momento", Err: err, RequestID: requestID}
	case errors.Is(err, context.Canceled):
		return &APIError{Status: http.StatusConflict, Code: "turno_cancelado",
			Message: "a geração foi interrompida", Err: err, RequestID: requestID}
	}
	return &APIError{Status: http.StatusInternalServerError, Code: "erro_interno",
		Message: "erro interno", Err: err, RequestID: requestID}
}
