/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    API handlers for the Centro de Comando service
 *
 * Provides HTTP handlers for sessions, messages, pending actions, and
 * feedback.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/victorbarbieri91/zyra-comando/internal/auth"
	"github.com/victorbarbieri91/zyra-comando/internal/db"
	"github.com/victorbarbieri91/zyra-comando/internal/humanloop"
	"github.com/victorbarbieri91/zyra-comando/internal/orchestrator"
	"github.com/victorbarbieri91/zyra-comando/internal/session"
	"github.com/victorbarbieri91/zyra-comando/internal/stager"
	"github.com/victorbarbieri91/zyra-comando/internal/validation"
)

const maxBodySize = 1024 * 1024

type Handlers struct {
	queries       *db.Queries
	sessions      *session.Manager
	orch          *orchestrator.Orchestrator
	feedback      *humanloop.FeedbackManager
	hub           *orchestrator.Hub
	maxRenderRows int
}

func NewHandlers(queries *db.Queries, sessions *session.Manager, orch *orchestrator.Orchestrator,
	feedback *humanloop.FeedbackManager, hub *orchestrator.Hub, maxRenderRows int) *Handlers {
	return &Handlers{
		queries:       queries,
		sessions:      sessions,
		orch:          orch,
		feedback:      feedback,
		hub:           hub,
		maxRenderRows: maxRenderRows,
	}
}

/* Sessions */

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := h.sessions.Create(r.Context(), identity.TenantID, identity.UserID, req.Titulo)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	limit, offset, err := paginationParams(r)
	if err != nil {
		respondError(w, NewError(http.StatusBadRequest, "paginacao_invalida", err.Error(), err))
		return
	}

	sessions, err := h.sessions.List(r.Context(), identity.TenantID, identity.UserID, limit, offset)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]SessionResponse, len(sessions))
	for i := range sessions {
		out[i] = toSessionResponse(&sessions[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handlers) SwitchSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	var req SwitchSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SessaoID == uuid.Nil {
		respondError(w, NewError(http.StatusBadRequest, "sessao_invalida", "sessao_id é obrigatório", nil))
		return
	}

	sess, err := h.orch.SwitchSession(r.Context(), identity.TenantID, identity.UserID, req.SessaoID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	sess.Active = true
	respondJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *Handlers) ClearChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	/* The clear targets the active session; a mismatched id means the
	 * client is out of date */
	active, err := h.queries.ActiveSession(r.Context(), identity.TenantID, identity.UserID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if active.ID != id {
		respondDomainError(w, r, db.ErrSessionNotActive)
		return
	}

	if err := h.orch.ClearChat(r.Context(), identity.TenantID, identity.UserID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* Messages */

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.ValidateMaxLength(req.Texto, "texto", validation.MaxMessageChars); err != nil {
		respondError(w, NewError(http.StatusBadRequest, "mensagem_invalida", err.Error(), err))
		return
	}

	/* Messages land only on the active session */
	active, err := h.queries.ActiveSession(r.Context(), identity.TenantID, identity.UserID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if active.ID != id {
		respondDomainError(w, r, db.ErrSessionNotActive)
		return
	}

	result, err := h.orch.SendMessage(r.Context(), identity.TenantID, identity.UserID, req.Texto)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, TurnResponse{
		Sessao:       toSessionResponse(result.Session),
		Mensagem:     h.toMessageResponse(result.UserMessage),
		Resposta:     h.toMessageResponse(result.AssistantMessage),
		AcaoPendente: result.PendingAction,
	})
}

func (h *Handlers) GetMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	/* Tenant scoping happens through the session lookup */
	if _, err := h.sessions.Get(r.Context(), identity.TenantID, id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	limit, offset, err := paginationParams(r)
	if err != nil {
		respondError(w, NewError(http.StatusBadRequest, "paginacao_invalida", err.Error(), err))
		return
	}

	messages, err := h.queries.GetMessages(r.Context(), id, limit, offset)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]MessageResponse, len(messages))
	for i := range messages {
		out[i] = h.toMessageResponse(&messages[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handlers) StopTurn(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.sessions.Get(r.Context(), identity.TenantID, id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	if !h.orch.StopTurn(id) {
		respondError(w, WrapError(ErrNotFound, GetRequestID(r.Context())))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/* Pending actions */

func (h *Handlers) CurrentAction(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	active, err := h.queries.ActiveSession(r.Context(), identity.TenantID, identity.UserID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	action := h.orch.CurrentAction(active.ID)
	if action == nil {
		respondError(w, WrapError(ErrNotFound, GetRequestID(r.Context())))
		return
	}
	respondJSON(w, http.StatusOK, action)
}

func (h *Handlers) ConfirmAction(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ConfirmActionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	outcome, err := h.orch.ConfirmAction(r.Context(), identity.TenantID, id, req.DuplaConfirmacao)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	h.respondOutcome(w, outcome)
}

func (h *Handlers) CancelAction(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	outcome, err := h.orch.CancelAction(r.Context(), identity.TenantID, id)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	h.respondOutcome(w, outcome)
}

/* ListActions returns the tenant's action audit trail, newest first.
 * An optional sessao_id query parameter narrows it to one session. */
func (h *Handlers) ListActions(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	limit, offset, err := paginationParams(r)
	if err != nil {
		respondError(w, NewError(http.StatusBadRequest, "paginacao_invalida", "parâmetros de paginação inválidos", err))
		return
	}

	var sessionID *uuid.UUID
	if raw := r.URL.Query().Get("sessao_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, NewError(http.StatusBadRequest, "id_invalido", "identificador de sessão inválido", err))
			return
		}
		sessionID = &id
	}

	records, err := h.queries.ListActionRecords(r.Context(), identity.TenantID, sessionID, limit, offset)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]ActionRecordResponse, len(records))
	for i := range records {
		out[i] = toActionRecordResponse(&records[i])
	}
	respondJSON(w, http.StatusOK, out)
}

/* Feedback */

func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	messageID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		respondError(w, NewError(http.StatusBadRequest, "mensagem_invalida", "id de mensagem inválido", err))
		return
	}

	var req FeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validation.ValidateRequired(req.Tipo, "tipo"); err != nil {
		respondError(w, NewError(http.StatusBadRequest, "feedback_invalido", err.Error(), err))
		return
	}
	if req.Correcao != nil {
		if err := validation.ValidateMaxLength(*req.Correcao, "correcao", validation.MaxCorrectionChars); err != nil {
			respondError(w, NewError(http.StatusBadRequest, "feedback_invalido", err.Error(), err))
			return
		}
	}

	record, err := h.feedback.SubmitFeedback(r.Context(), identity.TenantID, messageID, req.Tipo, req.Correcao)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if record == nil {
		/* Negative without a correction: nothing recorded */
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusCreated, toFeedbackResponse(record))
}

func (h *Handlers) GetFeedback(w http.ResponseWriter, r *http.Request) {
	identity, ok := callerIdentity(w, r)
	if !ok {
		return
	}

	messageID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, NewError(http.StatusBadRequest, "mensagem_invalida", "id de mensagem inválido", err))
		return
	}

	record, err := h.feedback.FeedbackFor(r.Context(), identity.TenantID, messageID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if record == nil {
		respondError(w, NewError(http.StatusNotFound, "sem_feedback", "mensagem ainda sem feedback", nil))
		return
	}
	respondJSON(w, http.StatusOK, toFeedbackResponse(record))
}

/* Helpers */

func (h *Handlers) respondOutcome(w http.ResponseWriter, outcome *stager.Outcome) {
	resp := ActionOutcomeResponse{
		Acao:      outcome.Action,
		Executada: outcome.Executed,
		Proxima:   h.orch.CurrentAction(outcome.Action.SessionID),
	}
	if outcome.ExecErr != nil {
		resp.Erro = outcome.ExecErr.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

func callerIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, WrapError(ErrUnauthorized, GetRequestID(r.Context())))
		return auth.Identity{}, false
	}
	return identity, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondError(w, NewError(http.StatusBadRequest, "id_invalido", "identificador inválido", err))
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, NewError(http.StatusBadRequest, "corpo_invalido", "corpo da requisição inválido", err))
		return false
	}
	if len(bodyBytes) == 0 {
		return true
	}
	if err := json.Unmarshal(bodyBytes, dst); err != nil {
		respondError(w, NewError(http.StatusBadRequest, "corpo_invalido", "JSON inválido", err))
		return false
	}
	return true
}

func paginationParams(r *http.Request) (limit, offset int, err error) {
	limit = 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, err
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			return 0, 0, err
		}
	}
	if err = validation.ValidateLimit(limit); err != nil {
		return 0, 0, err
	}
	if err = validation.ValidateOffset(offset); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err *APIError) {
	response := ErrorResponse{
		Error: err.Message,
		Code:  err.Code,
	}
	if err.Err != nil {
		response.Message = err.Err.Error()
	}
	if err.RequestID != "" {
		w.Header().Set("X-Request-ID", err.RequestID)
	}
	respondJSON(w, err.Status, response)
}

func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, mapDomainError(err, GetRequestID(r.Context())))
}
