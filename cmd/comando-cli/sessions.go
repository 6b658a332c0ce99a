/*-------------------------------------------------------------------------
 *
 * sessions.go
 *    Session commands for comando-cli
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    cmd/comando-cli/sessions.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sessoesCmd = &cobra.Command{
	Use:   "sessoes",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := apiClient().ListSessions(context.Background(), 50, 0)
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			printJSON(sessions)
			return nil
		}
		for _, s := range sessions {
			marker := " "
			if s.Ativa {
				marker = "*"
			}
			status := ""
			if s.Arquivada {
				status = " (arquivada)"
			}
			fmt.Printf("%s %s  %s%s\n", marker, s.ID, s.Titulo, status)
		}
		return nil
	},
}

var sessaoCmd = &cobra.Command{
	Use:   "sessao",
	Short: "Manage sessions",
}

var sessaoNovaCmd = &cobra.Command{
	Use:   "nova [titulo]",
	Short: "Create a new session and make it active",
	RunE: func(cmd *cobra.Command, args []string) error {
		titulo := ""
		if len(args) > 0 {
			titulo = args[0]
		}
		sess, err := apiClient().CreateSession(context.Background(), titulo)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			printJSON(sess)
			return nil
		}
		fmt.Printf("Sessão criada: %s  %s\n", sess.ID, sess.Titulo)
		return nil
	},
}

var sessaoTrocarCmd = &cobra.Command{
	Use:   "trocar <sessao-id>",
	Short: "Switch the active session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid session id: %s", args[0])
		}
		sess, err := apiClient().SwitchSession(context.Background(), id)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			printJSON(sess)
			return nil
		}
		fmt.Printf("Sessão ativa: %s  %s\n", sess.ID, sess.Titulo)
		return nil
	},
}

var sessaoLimparCmd = &cobra.Command{
	Use:   "limpar <sessao-id>",
	Short: "Clear the chat: archive the session and discard pending work",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid session id: %s", args[0])
		}
		if err := apiClient().ClearChat(context.Background(), id); err != nil {
			return err
		}
		fmt.Println("Conversa limpa.")
		return nil
	},
}

func init() {
	sessaoCmd.AddCommand(sessaoNovaCmd)
	sessaoCmd.AddCommand(sessaoTrocarCmd)
	sessaoCmd.AddCommand(sessaoLimparCmd)
}
