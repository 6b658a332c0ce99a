/*-------------------------------------------------------------------------
 *
 * client_test.go
 *    Tests for the agent backend HTTP client
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    internal/agentclient/client_test.go
 *
 *-------------------------------------------------------------------------
 */

package agentclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCompleteStreamsProgressAndFinal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completar" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer chave-teste" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"tipo":"pensando","texto":"Consultando processos"}`)
		fmt.Fprintln(w, `{"tipo":"pensando","texto":"Montando resposta"}`)
		fmt.Fprintln(w, `{"tipo":"final","payload":{"resposta":"Encontrei 2 processos."}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "chave-teste", 5*time.Second)
	var steps []string
	resp, err := client.Complete(context.Background(), &Request{TenantID: "t1", UserID: "u1", Texto: "oi"},
		func(step string) { steps = append(steps, step) })
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if resp.Reply != "Encontrei 2 processos." {
		t.Errorf("unexpected reply %q", resp.Reply)
	}
	if len(steps) != 2 || steps[0] != "Consultando processos" {
		t.Errorf("unexpected progress steps %v", steps)
	}
}

func TestCancelMidStreamReportsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"tipo":"pensando","texto":"Consultando processos"}`)
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
		/* Hold the stream open until the client gives up */
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Complete(ctx, &Request{TenantID: "t1", UserID: "u1", Texto: "oi"},
		func(step string) { cancel() })
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation not preserved: %v", err)
	}
	if errors.Is(err, ErrAgentUnavailable) {
		t.Errorf("cancellation misreported as agent failure: %v", err)
	}
}

func TestCancelBeforeDispatchReportsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should never reach the backend")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Complete(ctx, &Request{TenantID: "t1", UserID: "u1", Texto: "oi"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation not preserved: %v", err)
	}
}

func TestBackendFailureIsAgentUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Complete(context.Background(), &Request{TenantID: "t1", UserID: "u1", Texto: "oi"}, nil)
	if !errors.Is(err, ErrAgentUnavailable) {
		t.Fatalf("expected agent unavailable, got %v", err)
	}
}

func TestErrorFrameIsAgentUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"tipo":"erro","mensagem":"modelo sobrecarregado"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.Complete(context.Background(), &Request{TenantID: "t1", UserID: "u1", Texto: "oi"}, nil)
	if !errors.Is(err, ErrAgentUnavailable) {
		t.Fatalf("expected agent unavailable, got %v", err)
	}
}
