// agentdeck tails a coding-assistant gateway: it connects the multiplexed
// session channel, keeps the local session registry in sync, and prints
// change notifications. It is the composition root wiring config, logging,
// the persistent store, the registry and the channel together; a richer UI
// would subscribe to the same registry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codelane/agentdeck/internal/channel"
	"github.com/codelane/agentdeck/internal/config"
	"github.com/codelane/agentdeck/internal/logger"
	"github.com/codelane/agentdeck/internal/state"
	"github.com/codelane/agentdeck/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agentdeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	endpoint := flag.String("endpoint", "", "gateway endpoint (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}

	if err := logger.Init(logger.ParseLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Global().Close()

	db, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := state.NewRegistry()

	chCfg := channel.DefaultConfig(cfg.Endpoint)
	chCfg.ReconnectDelay = cfg.ReconnectDelay()
	ch := channel.New(chCfg, reg, db, logger.Global())
	defer ch.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	changes, _ := reg.Subscribe(ctx)

	ch.Connect()
	fmt.Printf("agentdeck: connecting to %s (%d stored sessions)\n",
		cfg.Endpoint, len(reg.SessionIDs()))

	for {
		select {
		case <-ctx.Done():
			fmt.Println("agentdeck: shutting down")
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			printChange(ch, c)
		}
	}
}

func printChange(ch *channel.Channel, c state.Change) {
	reg := ch.Registry()
	switch c.Kind {
	case state.ChangeConnection:
		info := ch.Info()
		if info.Connected {
			fmt.Printf("connected clientId=%s agents=%d\n", info.ClientID, len(info.Agents))
		} else {
			fmt.Println("disconnected")
		}
	case state.ChangeSession:
		sess, ok := reg.Session(c.SessionID)
		if !ok {
			return
		}
		fmt.Printf("session %s state=%s mode=%s messages=%d queued=%d\n",
			sess.ID, sess.State, sess.ExecutionMode, len(sess.Messages), len(sess.Queued))
	case state.ChangeChat:
		conv, ok := reg.Conversation(c.ConversationID)
		if !ok {
			return
		}
		fmt.Printf("chat %s state=%s messages=%d\n", conv.ID, conv.State, len(conv.Messages))
	}
}
