/*-------------------------------------------------------------------------
 *
 * client.go
 *    Go client for the Centro de Comando API
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    pkg/client/client.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 180 * time.Second},
	}
}

/* APIError is a non-2xx response from the server */
type APIError struct {
	Status  int
	Code    string `json:"codigo"`
	Message string `json:"erro"`
	Detail  string `json:"detalhe,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s): %s", e.Message, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

/* Sessions */

func (c *Client) CreateSession(ctx context.Context, titulo string) (*Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/v1/sessoes", map[string]string{"titulo": titulo}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSessions(ctx context.Context, limit, offset int) ([]Session, error) {
	path := fmt.Sprintf("/api/v1/sessoes?limit=%d&offset=%d", limit, offset)
	var out []Session
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SwitchSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/v1/sessoes/ativa", map[string]interface{}{"sessao_id": id}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearChat(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/v1/sessoes/"+url.PathEscape(sessionID.String())+"/limpar", nil, nil)
}

func (c *Client) StopTurn(ctx context.Context, sessionID uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/v1/sessoes/"+url.PathEscape(sessionID.String())+"/parar", nil, nil)
}

/* Messages */

func (c *Client) SendMessage(ctx context.Context, sessionID uuid.UUID, texto string) (*Turn, error) {
	path := "/api/v1/sessoes/" + url.PathEscape(sessionID.String()) + "/mensagens"
	var out Turn
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"texto": texto}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]Message, error) {
	path := fmt.Sprintf("/api/v1/sessoes/%s/mensagens?limit=%d&offset=%d", sessionID, limit, offset)
	var out []Message
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* Pending actions */

func (c *Client) CurrentAction(ctx context.Context) (*PendingAction, error) {
	var out PendingAction
	if err := c.do(ctx, http.MethodGet, "/api/v1/acoes/atual", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ConfirmAction(ctx context.Context, id uuid.UUID, duplaConfirmacao bool) (*ActionOutcome, error) {
	path := "/api/v1/acoes/" + url.PathEscape(id.String()) + "/confirmar"
	var out ActionOutcome
	err := c.do(ctx, http.MethodPost, path, map[string]bool{"dupla_confirmacao": duplaConfirmacao}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelAction(ctx context.Context, id uuid.UUID) (*ActionOutcome, error) {
	path := "/api/v1/acoes/" + url.PathEscape(id.String()) + "/cancelar"
	var out ActionOutcome
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

/* ListActions returns the action audit trail, newest first. A non-nil
 * sessionID narrows it to one session. */
func (c *Client) ListActions(ctx context.Context, sessionID *uuid.UUID, limit, offset int) ([]ActionRecord, error) {
	path := fmt.Sprintf("/api/v1/acoes?limit=%d&offset=%d", limit, offset)
	if sessionID != nil {
		path += "&sessao_id=" + url.QueryEscape(sessionID.String())
	}
	var out []ActionRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* Feedback */

func (c *Client) SubmitFeedback(ctx context.Context, messageID int64, tipo string, correcao *string) (*Feedback, error) {
	path := fmt.Sprintf("/api/v1/mensagens/%d/feedback", messageID)
	body := map[string]interface{}{"tipo": tipo}
	if correcao != nil {
		body["correcao"] = *correcao
	}
	var out Feedback
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	/* 204: negative feedback without a correction records nothing */
	if out.MensagemID == 0 {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) GetFeedback(ctx context.Context, messageID int64) (*Feedback, error) {
	path := fmt.Sprintf("/api/v1/mensagens/%d/feedback", messageID)
	var out Feedback
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("request encoding failed: error=%w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: path='%s', error=%w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: path='%s', error=%w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr := json.NewDecoder(resp.Body).Decode(apiErr); decodeErr != nil {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("response decoding failed: path='%s', error=%w", path, err)
	}
	return nil
}
