/*-------------------------------------------------------------------------
 *
 * messages.go
 *    Message commands for comando-cli
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    cmd/comando-cli/messages.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/victorbarbieri91/zyra-comando/pkg/client"
)

var enviarCmd = &cobra.Command{
	Use:   "enviar <sessao-id> <texto>",
	Short: "Send a message to the active session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid session id: %s", args[0])
		}
		texto := strings.Join(args[1:], " ")

		turn, err := apiClient().SendMessage(context.Background(), id, texto)
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			printJSON(turn)
			return nil
		}
		printMessage(&turn.Resposta)
		if turn.AcaoPendente != nil {
			fmt.Println()
			printPendingAction(turn.AcaoPendente)
		}
		return nil
	},
}

var mensagensCmd = &cobra.Command{
	Use:   "mensagens <sessao-id>",
	Short: "Show a session's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid session id: %s", args[0])
		}

		messages, err := apiClient().GetMessages(context.Background(), id, 50, 0)
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			printJSON(messages)
			return nil
		}
		for i := range messages {
			printMessage(&messages[i])
			fmt.Println()
		}
		return nil
	},
}

func printMessage(m *client.Message) {
	fmt.Printf("[%d] %s:\n", m.ID, m.Papel)
	switch {
	case m.Carregando:
		fmt.Println("  (processando...)")
	case m.Erro != nil:
		fmt.Printf("  ERRO: %s\n", *m.Erro)
	case m.Conteudo != nil:
		fmt.Printf("  %s\n", *m.Conteudo)
	}
	for _, result := range m.Resultados {
		printTable(&result)
	}
}

func printTable(result *client.RenderedResult) {
	fmt.Printf("  -- %s --\n", result.Tabela)

	labels := make([]string, len(result.Visao.Columns))
	for i, col := range result.Visao.Columns {
		labels[i] = col.Label
	}
	fmt.Printf("  %s\n", strings.Join(labels, " | "))

	for _, row := range result.Visao.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell.Text
		}
		fmt.Printf("  %s\n", strings.Join(cells, " | "))
	}
	if result.Visao.Summary != "" {
		fmt.Printf("  %s\n", result.Visao.Summary)
	}
}
