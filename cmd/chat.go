package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/ai"
	"github.com/spigell/pawmatch/internal/fulfillment"
	"github.com/spigell/pawmatch/internal/logger"
)

const chatHelp = `Type a message to talk to the matcher. Commands:
  /<tag> [text]   send a tagged turn, e.g. /schedule-visit tomorrow at 3pm
  /set key=value  set a session parameter for the next turn
  /params         show the stored session parameters
  /exit           leave the chat`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the dispatcher from the terminal",
	Run: func(_ *cobra.Command, _ []string) {
		chat()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func chat() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	core, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("wiring dependencies", zap.Error(err))
	}
	defer core.Close()

	go core.emitter.Run(ctx)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		core.emitter.Shutdown(shutdownCtx)
	}()

	conversationID := uuid.NewString()
	logger.Info("chat started", zap.String("conversation_id", conversationID))
	fmt.Println(chatHelp)

	var (
		history []ai.Turn
		pending = map[string]any{}
	)

	prompt := promptui.Prompt{Label: "you"}
	for {
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			break
		}
		if err != nil {
			logger.Fatal("reading input", zap.Error(err))
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		req := fulfillment.Request{ConversationID: conversationID, History: history}
		switch {
		case line == "/exit" || line == "/quit":
			return
		case line == "/help":
			fmt.Println(chatHelp)
			continue
		case line == "/params":
			printParams(ctx, core, conversationID)
			continue
		case strings.HasPrefix(line, "/set "):
			key, value, ok := strings.Cut(strings.TrimPrefix(line, "/set "), "=")
			if !ok {
				fmt.Println("usage: /set key=value")
				continue
			}
			pending[strings.TrimSpace(key)] = strings.TrimSpace(value)
			continue
		case strings.HasPrefix(line, "/"):
			tag, text, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
			req.Tag = tag
			req.RawText = strings.TrimSpace(text)
		default:
			req.RawText = line
		}

		req.SessionParameters = pending
		pending = map[string]any{}

		resp := core.dispatcher.Handle(ctx, req)
		reply := renderResponse(resp)
		fmt.Println(reply)

		if req.RawText != "" {
			history = append(history, ai.Turn{Role: ai.RoleUser, Text: req.RawText})
		}
		history = append(history, ai.Turn{Role: ai.RoleAgent, Text: reply})
	}
}

func renderResponse(resp *fulfillment.Response) string {
	parts := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		if text := msg.Render(); text != "" {
			parts = append(parts, text)
		}
	}
	if resp.Status != fulfillment.StatusFinal {
		parts = append(parts, fmt.Sprintf("[%s]", resp.Status))
	}
	return strings.Join(parts, "\n")
}

func printParams(ctx context.Context, core *application, conversationID string) {
	params, err := core.sessions.Get(ctx, conversationID)
	if err != nil {
		fmt.Printf("reading session: %v\n", err)
		return
	}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("  %s = %v\n", key, params[key])
	}
}
