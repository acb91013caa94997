package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"sniperok/internal/chat"
	"sniperok/internal/domain"
	"sniperok/internal/logger"
	"sniperok/internal/service"

	"github.com/urfave/cli/v2"
)

const help = `commands:
  <text>              world chat
  @user <text>        direct message
  /join <game> <seq>  join a game room
  /g <text>           chat in the joined game
  /start <round>      announce a round start in the joined game
  /login <token>      switch user (reconnects)
  /history [world|user|game]
  /logout, /clear, /quit`

func main() {
	app := &cli.App{
		Name:  "chat",
		Usage: "terminal client for the realtime rooms",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "ws://127.0.0.1:8080/ws", EnvVars: []string{"SNIPEROK_WS_URL"}},
			&cli.StringFlag{Name: "token", Usage: "session token; empty connects as a guest", EnvVars: []string{"SNIPEROK_TOKEN"}},
			&cli.StringFlag{Name: "log-level", Value: "warn"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// account holds the token the user is currently signed in with.
type account struct {
	mu       sync.Mutex
	token    string
	identity *domain.Identity
}

func (a *account) login(token string) error {
	id, err := service.PeekIdentity(token)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.token, a.identity = token, &id
	a.mu.Unlock()
	return nil
}

func (a *account) logout() {
	a.mu.Lock()
	a.token, a.identity = "", nil
	a.mu.Unlock()
}

func (a *account) Current() *domain.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity
}

func (a *account) Token(*domain.Identity) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// echoDialer prints every event the server pushes.
type echoDialer struct {
	chat.Dialer
	out io.Writer
}

func (d echoDialer) Dial(ctx context.Context, id *domain.Identity, deliver func(domain.Envelope)) (chat.Conn, error) {
	return d.Dialer.Dial(ctx, id, func(env domain.Envelope) {
		deliver(env)
		var msg domain.Message
		if json.Unmarshal(env.Data, &msg) != nil {
			return
		}
		fmt.Fprintf(d.out, "[%s] %s: %s\n", env.Event, msg.Sender, msg.Text)
	})
}

func run(c *cli.Context) error {
	logger.Init(c.String("log-level"), false)

	acct := &account{}
	if token := c.String("token"); token != "" {
		if err := acct.login(token); err != nil {
			return fmt.Errorf("token: %w", err)
		}
	}

	dialer := echoDialer{
		Dialer: &chat.WSDialer{URL: c.String("url"), Token: acct.Token},
		out:    os.Stdout,
	}
	session := chat.NewSession(acct, dialer)
	defer session.Logout()

	fmt.Println(help)
	var gameID string
	ctx := c.Context
	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}

		var err error
		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "/quit":
			return nil
		case "/logout":
			session.Logout()
			acct.logout()
		case "/clear":
			session.ClearAll()
		case "/login":
			err = acct.login(rest)
		case "/join":
			var seq int
			gameID, seq, err = parseJoin(rest)
			if err == nil {
				err = session.JoinGameChannel(ctx, gameID, seq)
			}
		case "/g":
			err = session.SendGameMessage(ctx, gameID, rest)
		case "/start":
			var round int
			if round, err = strconv.Atoi(rest); err == nil {
				err = session.SendStartRound(ctx, gameID, round)
			}
		case "/history":
			printHistory(os.Stdout, session, rest)
		default:
			if strings.HasPrefix(line, "@") {
				err = session.SendUserMessage(ctx, line)
			} else {
				err = session.SendWorldMessage(ctx, line)
			}
		}
		if err != nil {
			fmt.Println("!", err)
		}
	}
	return in.Err()
}

func parseJoin(args string) (string, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("usage: /join <game> <seq>")
	}
	seq, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("player seq: %w", err)
	}
	return fields[0], seq, nil
}

func printHistory(w io.Writer, s *chat.Session, scope string) {
	var msgs []chat.ActionableMessage
	switch scope {
	case "game":
		msgs = s.Messages(domain.MsgGameChat)
	case "user":
		msgs = s.Messages(domain.MsgUserChat)
	default:
		msgs = s.Messages(domain.MsgWorldChat)
	}
	for _, m := range msgs {
		line := m.Sender + ": " + m.Text
		if m.Receiver != "" {
			line = m.Sender + " -> " + m.Receiver + ": " + m.Text
		}
		for _, a := range m.Actions {
			line += "  [" + a.Prompt + " " + a.URL + "]"
		}
		fmt.Fprintln(w, line)
	}
}
