/*-------------------------------------------------------------------------
 *
 * feedback.go
 *    Feedback commands for comando-cli
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    cmd/comando-cli/feedback.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var feedbackCorrecao string

var feedbackCmd = &cobra.Command{
	Use:   "feedback <mensagem-id> [positivo|negativo|correcao]",
	Short: "Rate an assistant response, or show its recorded feedback",
	Long: `Rate an assistant response. Feedback is write-once per message;
with only a message id, the recorded feedback is shown instead.

A negative rating with --correcao re-runs the original request once,
with the correction attached for the agent.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		messageID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid message id: %s", args[0])
		}

		if len(args) == 1 {
			record, err := apiClient().GetFeedback(context.Background(), messageID)
			if err != nil {
				return err
			}
			if outputFormat == "json" {
				printJSON(record)
				return nil
			}
			fmt.Printf("Feedback: %s\n", record.Tipo)
			if record.Correcao != nil {
				fmt.Printf("  Correção: %s\n", *record.Correcao)
			}
			return nil
		}

		var correcao *string
		if feedbackCorrecao != "" {
			correcao = &feedbackCorrecao
		}

		record, err := apiClient().SubmitFeedback(context.Background(), messageID, args[1], correcao)
		if err != nil {
			return err
		}
		if record == nil {
			fmt.Println("Nada registrado: feedback negativo sem correção.")
			return nil
		}
		if outputFormat == "json" {
			printJSON(record)
			return nil
		}
		fmt.Printf("Feedback registrado: %s\n", record.Tipo)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackCorrecao, "correcao", "", "Correction text for negative feedback")
}
