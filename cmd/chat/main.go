package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"aiupstart.com/chat-stream/internal/chat"
	"aiupstart.com/chat-stream/internal/config"
	"aiupstart.com/chat-stream/internal/llm"
	"aiupstart.com/chat-stream/internal/metrics"
	"aiupstart.com/chat-stream/internal/model"
	"aiupstart.com/chat-stream/internal/tools"
	"aiupstart.com/chat-stream/internal/utils"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfgPath := "chat.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		utils.Logger.Fatal().Err(err).Msg("cannot load config")
	}
	if err := config.ValidateConfig(cfg); err != nil {
		utils.Logger.Fatal().Err(err).Msg("invalid config")
	}
	if cfg.APIKey == "" {
		fmt.Println("Please set the OPENAI_API_KEY environment variable.")
		return
	}
	if cfg.MetricsAddr != "" {
		metrics.StartMetricsServer(cfg.MetricsAddr)
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewClockTool())
	registry.Register(tools.NewCalculatorTool())
	registry.Register(tools.NewNotesTool())

	log := chat.NewLog()
	log.SetObserver(newRenderer().render)

	orchestrator := chat.NewOrchestrator(
		llm.NewClient(cfg, registry.Definitions()),
		tools.NewGateway(registry),
		log,
		chat.Options{
			MaxInputChars: cfg.MaxInputChars,
			MaxToolTurns:  cfg.MaxToolTurns,
			RoundTimeout:  cfg.RoundTimeout(),
			Credential:    cfg.APIKey,
		},
	)

	// Ctrl+C stops the in-flight session instead of killing the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	go func() {
		for range sigCh {
			orchestrator.Stop()
		}
	}()

	fmt.Printf("chat-stream - model %s, tools: %s\n", cfg.Model, strings.TrimSpace(registry.DescribeTools()))
	fmt.Println("Type a message, or /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "/quit" || input == "/exit" {
			return
		}
		if input == "" {
			continue
		}
		if err := orchestrator.Send(context.Background(), input); err != nil {
			var verr *chat.ValidationError
			if errors.As(err, &verr) {
				fmt.Printf("\n! %s\n", verr.Reason)
			}
			// Everything else was already rendered through the log.
		}
	}
}

// renderer prints log updates: streamed assistant deltas incrementally, tool
// results as single lines.
type renderer struct {
	printed map[string]string
}

func newRenderer() *renderer {
	return &renderer{printed: make(map[string]string)}
}

func (r *renderer) render(msg model.Message) {
	switch msg.Role {
	case model.RoleAssistant:
		prev := r.printed[msg.ID]
		if strings.HasPrefix(msg.Content, prev) {
			fmt.Print(msg.Content[len(prev):])
		} else {
			// Content was replaced (tool summary or a new round).
			fmt.Printf("\n%s", msg.Content)
		}
		r.printed[msg.ID] = msg.Content
		if msg.ErrCause != "" {
			fmt.Printf("\n! %s\n", msg.ErrCause)
		}
	case model.RoleTool:
		fmt.Printf("\n[%s] %s\n", msg.ToolName, msg.Content)
	}
}
