/*-------------------------------------------------------------------------
 *
 * client.go
 *    HTTP client for the external agent backend
 *
 * The agent backend receives the conversation history plus the new user
 * text and returns a natural-language reply, zero or more tool results,
 * and zero or more proposed actions. It may emit intermediate progress
 * events before the final payload; the response body is a stream of
 * newline-delimited JSON events.
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/agentclient/client.go
 *
 *-------------------------------------------------------------------------
 */

package agentclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/victorbarbieri91/zyra-comando/internal/db"
	"github.com/victorbarbieri91/zyra-comando/internal/stager"
)

/* ErrAgentUnavailable indicates the agent call failed outright */
var ErrAgentUnavailable = errors.New("agent backend unavailable")

/* HistoryMessage is one prior turn sent to the agent */
type HistoryMessage struct {
	Role    string `json:"papel"`
	Content string `json:"conteudo"`
}

/* Request is the payload dispatched to the agent backend */
type Request struct {
	TenantID string           `json:"tenant_id"`
	UserID   string           `json:"user_id"`
	History  []HistoryMessage `json:"historico"`
	Texto    string           `json:"texto"`
	Correcao *string          `json:"correcao,omitempty"`
}

/* Response is the agent's final payload for a turn */
type Response struct {
	Reply       string                  `json:"resposta"`
	ToolResults []db.ToolResult         `json:"resultados,omitempty"`
	Actions     []stager.ProposedAction `json:"acoes,omitempty"`
}

/* ProgressFunc receives intermediate thinking steps */
type ProgressFunc func(step string)

/* Backend produces agent replies for conversation turns */
type Backend interface {
	Complete(ctx context.Context, req *Request, progress ProgressFunc) (*Response, error)
}

/* event is one newline-delimited frame of the agent response stream */
type event struct {
	Tipo     string          `json:"tipo"`
	Texto    string          `json:"texto,omitempty"`
	Mensagem string          `json:"mensagem,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

/* Complete dispatches a turn and streams progress until the final payload */
func (c *Client) Complete(ctx context.Context, req *Request, progress ProgressFunc) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("agent request marshal failed: error=%w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completar", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent request build failed: error=%w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		/* A cancelled turn must surface as cancellation, not agent failure */
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("agent call failed: base_url='%s', error=%v: %w", c.baseURL, err, ErrAgentUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("agent call failed: status=%d, body='%s': %w",
			resp.StatusCode, string(snippet), ErrAgentUnavailable)
	}

	return c.readStream(ctx, resp.Body, progress)
}

func (c *Client) readStream(ctx context.Context, body io.Reader, progress ProgressFunc) (*Response, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("agent stream decode failed: error=%w", err)
		}

		switch ev.Tipo {
		case "pensando":
			if progress != nil && ev.Texto != "" {
				progress(ev.Texto)
			}
		case "final":
			var response Response
			if err := json.Unmarshal(ev.Payload, &response); err != nil {
				return nil, fmt.Errorf("agent final payload decode failed: error=%w", err)
			}
			return &response, nil
		case "erro":
			return nil, fmt.Errorf("agent reported error: message='%s': %w", ev.Mensagem, ErrAgentUnavailable)
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("agent stream read failed: error=%v: %w", err, ErrAgentUnavailable)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("agent stream ended without final payload: %w", ErrAgentUnavailable)
}
