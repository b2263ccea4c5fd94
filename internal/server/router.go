// Package server implements the line-oriented TCP console for the fraud
// desk. One connection is one conversation: the connection owns a session
// that is discarded when the peer hangs up.
package server

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/securetrust-dev/fraudguard/internal/engine"
	"github.com/securetrust-dev/fraudguard/internal/verify"
	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

// maxFailedAnswers is the console's calling policy: the engine itself
// imposes no retry limit, so the console closes the case after the second
// failed answer.
const maxFailedAnswers = 2

type Router struct {
	mu       sync.Mutex
	listener net.Listener
	engine   *verify.Engine
	store    *engine.CaseStore
	cert     *tls.Certificate
}

func NewRouter(eng *verify.Engine, store *engine.CaseStore) *Router {
	return &Router{engine: eng, store: store}
}

// SetCertificate enables TLS on the console listener.
func (r *Router) SetCertificate(cert tls.Certificate) {
	r.cert = &cert
}

// Listen starts the TCP console server. Blocks until Stop is called or the
// listener fails.
func (r *Router) Listen(port string) error {
	var listener net.Listener
	var err error

	if r.cert != nil {
		config := &tls.Config{Certificates: []tls.Certificate{*r.cert}}
		listener, err = tls.Listen("tcp", ":"+port, config)
	} else {
		listener, err = net.Listen("tcp", ":"+port)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.listener = listener
	r.mu.Unlock()

	semaphore := make(chan struct{}, 100) // Max 100 concurrent conversations

	for {
		conn, err := listener.Accept()
		if err != nil {
			r.mu.Lock()
			closed := r.listener == nil
			r.mu.Unlock()
			if closed {
				return nil
			}
			continue
		}

		conn.SetDeadline(time.Now().Add(5 * time.Minute))

		go func(c net.Conn) {
			semaphore <- struct{}{}
			defer func() {
				<-semaphore
				c.Close()
			}()
			r.handleConversation(c)
		}(conn)
	}
}

// Stop closes the listener and stops accepting conversations.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener != nil {
		r.listener.Close()
		r.listener = nil
	}
}

// Addr returns the listener address, or nil before Listen has bound.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// handleConversation owns one session for the lifetime of the connection.
// If the peer disconnects before the case is resolved, the session is simply
// dropped; nothing has been written for it.
func (r *Router) handleConversation(conn net.Conn) {
	reader := bufio.NewReader(conn)
	session := &verify.Session{}
	failedAnswers := 0

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))

		line, err := reader.ReadString('\n')
		if err != nil {
			return // Connection closed or timeout
		}

		line = strings.TrimSpace(line)
		parts := strings.SplitN(line, " ", 2)
		if parts[0] == "" {
			continue
		}

		command := strings.ToUpper(parts[0])
		arg := ""
		if len(parts) > 1 {
			arg = strings.TrimSpace(parts[1])
		}

		switch command {
		case "LOAD":
			if arg == "" {
				fmt.Fprintln(conn, "ERR usage: LOAD <customer name>")
				continue
			}
			failedAnswers = 0
			r.reply(conn, session, verify.LoadCase{Username: arg})

		case "ANSWER":
			result, err := r.engine.Dispatch(session, verify.SubmitAnswer{Answer: arg})
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
				continue
			}
			if result.Status == schema.ResultRejected {
				failedAnswers++
				if failedAnswers >= maxFailedAnswers {
					// Calling policy: two strikes, then the case is closed.
					r.reply(conn, session, verify.CloseVerificationFailed{})
					continue
				}
			}
			r.writeResult(conn, result)

		case "DETAILS":
			r.reply(conn, session, verify.GetCaseDetails{})

		case "CONFIRM":
			r.reply(conn, session, verify.ConfirmTransaction{Made: true})

		case "DENY":
			r.reply(conn, session, verify.ConfirmTransaction{Made: false})

		case "CLOSE":
			r.reply(conn, session, verify.CloseVerificationFailed{})

		case "LIST":
			cases, err := r.store.LoadAll()
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
				continue
			}
			names := []string{}
			for _, c := range cases {
				names = append(names, c.Username)
			}
			r.writeJSON(conn, names)

		case "GET":
			if arg == "" {
				fmt.Fprintln(conn, "ERR usage: GET <customer name>")
				continue
			}
			found, err := r.store.FindByUsername(arg)
			if err != nil {
				fmt.Fprintln(conn, "ERR", err)
				continue
			}
			r.writeJSON(conn, found)

		case "PING":
			fmt.Fprintln(conn, "PONG")

		case "QUIT":
			return

		default:
			fmt.Fprintln(conn, "ERR unknown command", command)
		}
	}
}

func (r *Router) reply(conn net.Conn, session *verify.Session, cmd verify.Command) {
	result, err := r.engine.Dispatch(session, cmd)
	if err != nil {
		fmt.Fprintln(conn, "ERR", err)
		return
	}
	r.writeResult(conn, result)
}

func (r *Router) writeResult(conn net.Conn, result schema.ToolResult) {
	r.writeJSON(conn, result)
}

func (r *Router) writeJSON(conn net.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(conn, "ERR internal error")
		return
	}
	fmt.Fprintln(conn, "OK", string(data))
}
