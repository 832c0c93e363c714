package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"context-retriever-be/internal/bootstrap"
	"context-retriever-be/internal/config"
	"context-retriever-be/internal/pkg/logger"
	"context-retriever-be/pkg/database"
	"context-retriever-be/pkg/store"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var demoConversation = []struct {
	query       string
	description string
}{
	{"What is machine learning?", "Initial query, general knowledge"},
	{"How does it differ from deep learning?", "Follow-up that leans on the previous turn"},
	{"Can you find any internal documents about AI policies?", "Internal document query"},
	{"What are the latest developments in that field?", "Ambiguous follow-up resolved through history"},
	{"Tell me about our business continuity plan", "Internal document query"},
}

func main() {
	app := &cli.App{
		Name:  "chat",
		Usage: "Talk to the context-aware retriever from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "User id the conversation is recorded under",
				Value:   "demo_user",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where engine logs go (kept off the terminal)",
				Value: "logs/chat.log",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "Run a scripted five-turn conversation",
				Action: demoCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "pause",
						Usage: "Pause between turns",
						Value: 3 * time.Second,
					},
				},
			},
			{
				Name:   "interactive",
				Usage:  "Read queries from stdin (/clear, /history, /quit)",
				Action: interactiveCommand,
			},
		},
		DefaultCommand: "interactive",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCore(c *cli.Context) (*bootstrap.Core, error) {
	cfg := config.Load()

	db, err := database.NewQuietGormDB(cfg.Database.Connection)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return bootstrap.NewCore(db, cfg, logger.NewIsolatedLogger(c.String("log-file")))
}

func demoCommand(c *cli.Context) error {
	core, err := newCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := c.Context
	userID := c.String("user")

	color.Cyan("🧠 Context-Aware Retriever Demo")
	fmt.Println(strings.Repeat("=", 60))

	for i, turn := range demoConversation {
		color.Yellow("\n🗣️  Turn %d: %s", i+1, turn.description)
		fmt.Printf("Query: '%s'\n", turn.query)
		fmt.Println(strings.Repeat("-", 50))

		res, err := core.Orchestrator.Retrieve(ctx, turn.query, userID)
		if err != nil {
			return err
		}
		printResult(res, 150)

		if i < len(demoConversation)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.Duration("pause")):
			}
		}
	}

	color.Green("\n🎉 Conversation complete. Final history:")
	return printHistory(ctx, core, userID, 60)
}

func interactiveCommand(c *cli.Context) error {
	core, err := newCore(c)
	if err != nil {
		return err
	}
	defer core.Close()

	ctx := c.Context
	userID := c.String("user")

	color.Cyan("🎯 Interactive Context-Aware Retriever")
	fmt.Println("Commands: /clear, /history, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("\n[%s] Enter your query: ", userID)
		if !scanner.Scan() {
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(query) {
		case "":
			continue
		case "/quit", "/exit", "quit", "exit":
			return nil
		case "/clear":
			if err := core.Orchestrator.ClearSession(ctx, userID); err != nil {
				color.Red("Failed to clear history: %v", err)
				continue
			}
			color.Green("✅ Conversation history cleared!")
			continue
		case "/history":
			if err := printHistory(ctx, core, userID, 80); err != nil {
				color.Red("Failed to read history: %v", err)
			}
			continue
		}

		fmt.Println("\n🔍 Searching...")
		res, err := core.Orchestrator.Retrieve(ctx, query, userID)
		if err != nil {
			color.Red("%v", err)
			continue
		}
		printResult(res, 200)
	}
}

func printResult(res *store.RetrievalResult, excerpt int) {
	color.Green("Strategy Used: %s", res.StrategyUsed)
	fmt.Printf("Confidence: %.2f\n", res.Confidence)
	fmt.Printf("Context Used: %t\n", res.ContextUsed)
	fmt.Printf("Documents Found: %d\n", res.DocumentCount)
	fmt.Printf("Reasoning: %s\n", res.Reasoning)
	fmt.Printf("Conversation Length: %d turns\n", res.ConversationLength)

	if len(res.Documents) > 0 {
		doc := res.Documents[0]
		source := doc.Source
		if source == "" {
			source = "unknown"
		}
		color.Cyan("\n📄 Top Result:")
		fmt.Printf("   Source: %s\n", source)
		fmt.Printf("   Content: %s...\n", store.Truncate(doc.Content, excerpt))
	}
}

func printHistory(ctx context.Context, core *bootstrap.Core, userID string, width int) error {
	history, err := core.Orchestrator.GetHistory(ctx, userID)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("📭 No conversation history found.")
		return nil
	}

	fmt.Printf("\n📚 Conversation History (%d turns):\n", len(history))
	for i, turn := range history {
		fmt.Printf("   %d. %s... → %s (%d docs)\n", i+1, store.Truncate(turn.QueryText, width), turn.StrategyUsed, turn.DocumentCount)
	}
	return nil
}
