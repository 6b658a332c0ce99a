/*-------------------------------------------------------------------------
 *
 * root.go
 *    Root command and global flags for comando-cli
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    cmd/comando-cli/root.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/victorbarbieri91/zyra-comando/pkg/client"
)

var (
	apiURL       string
	apiToken     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "comando-cli",
	Short: "Centro de Comando CLI - operate the conversational action pipeline",
	Long: `comando-cli talks to a Centro de Comando server: sessions, messages,
pending actions, and feedback.

Examples:
  # List sessions
  comando-cli sessoes

  # Send a message to a session
  comando-cli enviar <sessao-id> "cadastre o cliente Acme"

  # Show the pending action
  comando-cli acao atual

  # Confirm the pending action (deletes need the explicit flag)
  comando-cli acao confirmar <acao-id> --confirmo-exclusao

  # Cancel the pending action
  comando-cli acao cancelar <acao-id>
`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", getEnvOrDefault("COMANDO_URL", "http://localhost:8084"), "Centro de Comando API URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", getEnvOrDefault("COMANDO_TOKEN", ""), "Bearer token (required)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	rootCmd.AddCommand(sessoesCmd)
	rootCmd.AddCommand(sessaoCmd)
	rootCmd.AddCommand(enviarCmd)
	rootCmd.AddCommand(mensagensCmd)
	rootCmd.AddCommand(acaoCmd)
	rootCmd.AddCommand(feedbackCmd)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func apiClient() *client.Client {
	return client.New(apiURL, apiToken)
}

func printJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(v)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
