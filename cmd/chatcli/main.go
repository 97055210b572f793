// Command chatcli talks to a running receptionist over its WebSocket endpoint.
//
// Lines typed on stdin are sent as visitor messages. "/back", "/reset" and "/quit" are commands.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type options struct {
	baseURL  string
	location string
	session  string
	timeout  time.Duration
}

type inbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type frame struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Step      string    `json:"step,omitempty"`
	Message   *message  `json:"message,omitempty"`
	Messages  []message `json:"messages,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type message struct {
	Sender       string   `json:"sender"`
	Text         string   `json:"text"`
	QuickActions []string `json:"quick_actions,omitempty"`
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatcli: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "chatcli: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var cfg options
	fs := flag.NewFlagSet("chatcli", flag.ContinueOnError)
	fs.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "receptionist base URL")
	fs.StringVar(&cfg.location, "location", "", "branch to open the chat on (kiambu, roysambu)")
	fs.StringVar(&cfg.session, "session", "", "resume an existing session id")
	fs.DurationVar(&cfg.timeout, "dial-timeout", 10*time.Second, "WebSocket dial timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	return cfg, nil
}

// wsURL maps the HTTP base URL to the chat socket URL.
func wsURL(cfg options) (string, error) {
	u, err := url.Parse(cfg.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base-url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/chat/ws"
	q := u.Query()
	if cfg.location != "" {
		q.Set("location", cfg.location)
	}
	if cfg.session != "" {
		q.Set("session", cfg.session)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func run(ctx context.Context, cfg options, in io.Reader, out io.Writer) error {
	target, err := wsURL(cfg)
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{HandshakeTimeout: cfg.timeout}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer func() { _ = conn.Close() }()

	done := make(chan error, 1)
	go func() {
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				done <- err
				return
			}
			render(out, f)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return closeConn(conn)
		case err := <-done:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		case line, ok := <-lines:
			if !ok {
				return closeConn(conn)
			}
			msg, quit := parseLine(line)
			if quit {
				return closeConn(conn)
			}
			if msg.Type == "" {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

func closeConn(conn *websocket.Conn) error {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	return nil
}

func parseLine(line string) (inbound, bool) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return inbound{}, false
	case "/quit", "/exit":
		return inbound{}, true
	case "/back":
		return inbound{Type: "back"}, false
	case "/reset":
		return inbound{Type: "reset"}, false
	default:
		return inbound{Type: "message", Text: line}, false
	}
}

func render(w io.Writer, f frame) {
	switch f.Type {
	case "session":
		fmt.Fprintf(w, "[session %s, step %s]\n", f.SessionID, f.Step)
	case "typing":
		fmt.Fprintln(w, "...")
	case "history":
		for _, m := range f.Messages {
			renderMessage(w, m)
		}
	case "message":
		if f.Message != nil {
			renderMessage(w, *f.Message)
		}
	case "error":
		fmt.Fprintf(w, "! %s\n", f.Error)
	case "pong":
	default:
		raw, _ := json.Marshal(f)
		fmt.Fprintf(w, "? %s\n", raw)
	}
}

func renderMessage(w io.Writer, m message) {
	who := "bot"
	if m.Sender == "user" {
		who = "you"
	}
	fmt.Fprintf(w, "%s> %s\n", who, m.Text)
	if len(m.QuickActions) > 0 {
		fmt.Fprintf(w, "   [%s]\n", strings.Join(m.QuickActions, "] ["))
	}
}
