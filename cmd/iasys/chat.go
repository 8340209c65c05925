package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long:  `Starts an interactive session on stdin/stdout. Type "sair" or press Ctrl+D to leave.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg)

		assistant, err := newAssistant(cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing assistant: %v\n", err)
			os.Exit(1)
		}
		defer assistant.Close()

		render := newRenderer()
		ctx := context.Background()

		// An empty first turn fetches the greeting and the opening prompt.
		sessionID, replies, err := assistant.Handle(ctx, "", "")
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		printReplies(render, replies)

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "sair" {
				break
			}

			_, replies, err := assistant.Handle(ctx, sessionID, line)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printReplies(render, replies)
		}

		fmt.Println("Até logo!")
	},
}

// newRenderer returns a markdown renderer for terminal output.
func newRenderer() func(string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(s string) string { return s }
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return strings.TrimRight(out, "\n") + "\n"
	}
}

func printReplies(render func(string) string, replies []string) {
	for _, reply := range replies {
		fmt.Print(render(reply))
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
