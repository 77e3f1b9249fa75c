package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/schedsense/schedsense/ai/agent"
)

// chatCmd runs the assistant as a terminal conversation instead of an HTTP
// server. Useful for trying prompts and for development without a frontend.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the scheduling assistant from the terminal",
	Run: func(_ *cobra.Command, _ []string) {
		prof, err := loadProfile()
		if err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		deps, err := buildServices(ctx, prof)
		if err != nil {
			slog.Error("failed to initialize services", "error", err)
			os.Exit(1)
		}
		defer deps.store.Shutdown()

		mgr := agent.NewManager(deps.store, deps.extractor, deps.calendar, prof.Location(), nil)
		sessionID := uuid.NewString()

		fmt.Println("SchedSense — tell me what to schedule. Type 'exit' to quit, 'clear' to start over.")
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return
			}
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
				continue
			case line == "exit" || line == "quit":
				return
			case line == "clear":
				if sess, ok := deps.store.Get(sessionID); ok {
					sess.Lock()
					sess.Clear()
					sess.Unlock()
				}
				fmt.Println("Conversation cleared.")
				continue
			}

			reply := mgr.HandleMessage(ctx, sessionID, line)
			fmt.Println(reply.Text)
		}
	},
}
