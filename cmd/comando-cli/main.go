/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for comando-cli
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    cmd/comando-cli/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

func main() {
	Execute()
}
