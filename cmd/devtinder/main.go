package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/12305/devTinder-Frontend/internal/api"
	"github.com/12305/devTinder-Frontend/internal/chat"
	"github.com/12305/devTinder-Frontend/internal/config"
	"github.com/12305/devTinder-Frontend/internal/conversations"
	"github.com/12305/devTinder-Frontend/internal/realtime"
	"github.com/12305/devTinder-Frontend/internal/session"
	"github.com/12305/devTinder-Frontend/pkg/logger"
	"github.com/12305/devTinder-Frontend/pkg/notify"
)

func main() {
	email := flag.String("email", "", "login email (only needed when no stored session exists)")
	password := flag.String("password", "", "login password")
	chatID := flag.String("chat", "", "open this conversation and send lines typed on stdin")
	flag.Parse()

	// 0. Load config & initialize logger
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger.Init(cfg.Env)
	logger.Info().Str("server", cfg.ServerURL).Msg("Starting devTinder client")

	// 1. Session: restore from stored credentials, else log in
	client := api.New(cfg.ServerURL, cfg.HTTPTimeout)
	store := session.NewStore(client, &session.FileStore{Path: cfg.CredentialsFile})

	ctx := context.Background()
	if !store.Restore(ctx) {
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "no stored session; pass -email and -password")
			os.Exit(1)
		}
		if _, err := store.Login(ctx, *email, *password); err != nil {
			logger.Error().Err(err).Msg("login failed")
			os.Exit(1)
		}
	}
	me := store.Current()
	logger.Info().Str("userId", me.ID).Str("name", me.FullName()).Msg("logged in")

	// 2. Realtime channel, scoped to this session
	manager := realtime.NewManager(cfg.SocketURL, client)
	if err := manager.Connect(ctx, store.Token()); err != nil {
		logger.Error().Err(err).Msg("realtime connect failed")
		os.Exit(1)
	}
	defer manager.Close()

	// 3. Conversation list
	list := conversations.NewList(client, manager, me.ID)
	if err := list.Refresh(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to fetch conversations")
		os.Exit(1)
	}
	for _, entry := range list.Conversations(time.Now()) {
		name := "(unknown)"
		if entry.Other != nil {
			name = entry.Other.FullName()
		}
		badge := ""
		if entry.UnreadCount > 0 {
			badge = fmt.Sprintf(" [%d unread]", entry.UnreadCount)
		}
		fmt.Printf("%s — %s%s\n", name, entry.Status, badge)
	}

	if *chatID == "" {
		return
	}

	// 4. Open the chat and tail it until interrupted
	sess := chat.NewSession(*chatID, me.ID, client, manager, notify.LogNotifier{})
	if err := sess.Open(ctx); err != nil {
		logger.Error().Err(err).Msg("could not open chat")
		os.Exit(1)
	}
	defer sess.Close()

	printed := printRows(sess, 0)

	// Lines typed on stdin become messages; incoming messages print as they land.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			sess.Input(scanner.Text())
			if _, err := sess.Send(ctx); err != nil {
				logger.Warn().Err(err).Msg("send failed")
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			printed = printRows(sess, printed)
		case <-quit:
			logger.Info().Msg("shutting down")
			return
		}
	}
}

// printRows prints timeline messages past the given count and returns the new
// count.
func printRows(sess *chat.Session, printed int) int {
	msgs := sess.Timeline()
	for _, row := range chat.Rows(msgs[printed:], time.Now()) {
		if row.Separator != "" {
			fmt.Printf("--- %s ---\n", row.Separator)
			continue
		}
		fmt.Printf("[%s] %s: %s\n", row.Message.CreatedAt.Format("15:04"), row.Message.SenderID, row.Message.Content)
	}
	return len(msgs)
}
