/*-------------------------------------------------------------------------
 *
 * actions.go
 *    Pending action commands for comando-cli
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    cmd/comando-cli/actions.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/victorbarbieri91/zyra-comando/pkg/client"
)

var confirmoExclusao bool

var acaoCmd = &cobra.Command{
	Use:   "acao",
	Short: "Inspect and resolve pending actions",
}

var acaoAtualCmd = &cobra.Command{
	Use:   "atual",
	Short: "Show the currently presented pending action",
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := apiClient().CurrentAction(context.Background())
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			printJSON(action)
			return nil
		}
		printPendingAction(action)
		return nil
	},
}

var acaoConfirmarCmd = &cobra.Command{
	Use:   "confirmar <acao-id>",
	Short: "Confirm and execute the presented action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid action id: %s", args[0])
		}

		outcome, err := apiClient().ConfirmAction(context.Background(), id, confirmoExclusao)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			printJSON(outcome)
			return nil
		}
		if outcome.Erro != "" {
			fmt.Printf("Execução falhou: %s\n", outcome.Erro)
		} else {
			fmt.Println("Ação executada.")
		}
		if outcome.Proxima != nil {
			fmt.Println()
			printPendingAction(outcome.Proxima)
		}
		return nil
	},
}

var acaoCancelarCmd = &cobra.Command{
	Use:   "cancelar <acao-id>",
	Short: "Cancel the presented action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid action id: %s", args[0])
		}

		outcome, err := apiClient().CancelAction(context.Background(), id)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			printJSON(outcome)
			return nil
		}
		fmt.Println("Ação cancelada.")
		if outcome.Proxima != nil {
			fmt.Println()
			printPendingAction(outcome.Proxima)
		}
		return nil
	},
}

var historicoSessao string

var acaoHistoricoCmd = &cobra.Command{
	Use:   "historico",
	Short: "List the action audit trail, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var sessionID *uuid.UUID
		if historicoSessao != "" {
			id, err := uuid.Parse(historicoSessao)
			if err != nil {
				return fmt.Errorf("invalid session id: %s", historicoSessao)
			}
			sessionID = &id
		}

		records, err := apiClient().ListActions(context.Background(), sessionID, 50, 0)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			printJSON(records)
			return nil
		}
		if len(records) == 0 {
			fmt.Println("Nenhuma ação registrada.")
			return nil
		}
		for _, rec := range records {
			line := fmt.Sprintf("%s  %-16s %-8s %s", rec.CriadaEm.Format("2006-01-02 15:04"), rec.Status, rec.Tipo, rec.Tabela)
			if rec.Erro != nil {
				line += "  erro: " + *rec.Erro
			}
			fmt.Println(line)
		}
		return nil
	},
}

func printPendingAction(action *client.PendingAction) {
	fmt.Printf("Ação pendente %s [%s]\n", action.ID, action.Proposed.Kind)
	fmt.Printf("  Tabela: %s\n", action.Proposed.Table)
	if action.Proposed.Explanation != "" {
		fmt.Printf("  %s\n", action.Proposed.Explanation)
	}
	switch action.Proposed.Kind {
	case "insert":
		for campo, valor := range action.Proposed.Dados {
			fmt.Printf("  + %s: %v\n", campo, valor)
		}
	case "update":
		for _, change := range action.Changes {
			fmt.Printf("  ~ %s: %v -> %v\n", change.Field, change.Antes, change.Depois)
		}
	case "delete":
		for campo, valor := range action.Proposed.Registro {
			fmt.Printf("  - %s: %v\n", campo, valor)
		}
		fmt.Println("  ATENÇÃO: exclusão exige --confirmo-exclusao")
	}
}

func init() {
	acaoConfirmarCmd.Flags().BoolVar(&confirmoExclusao, "confirmo-exclusao", false, "Acknowledge a delete action explicitly")
	acaoHistoricoCmd.Flags().StringVar(&historicoSessao, "sessao", "", "Restrict the trail to one session id")

	acaoCmd.AddCommand(acaoAtualCmd)
	acaoCmd.AddCommand(acaoConfirmarCmd)
	acaoCmd.AddCommand(acaoCancelarCmd)
	acaoCmd.AddCommand(acaoHistoricoCmd)
}
