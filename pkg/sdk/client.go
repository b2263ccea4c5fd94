// Package sdk provides the client-side library for the FraudGuard console.
// A connection is one conversation: the daemon keeps the verification
// session alive for as long as the connection is open.
package sdk

import (
	"bufio"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/securetrust-dev/fraudguard/pkg/schema"
)

// Client is a remote client for one FraudGuard conversation.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex // Protects concurrent access to the connection
}

// Connect establishes a TLS-encrypted connection to the daemon's console.
// If FRAUDGUARD_DISABLE_TLS is set to "true", it falls back to plain TCP.
// Because the session lives on the connection, there is no transparent
// reconnect: a dropped connection is a dropped conversation.
func Connect(addr string) (*Client, error) {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	var conn net.Conn
	var err error
	for i := 0; i < 3; i++ {
		if os.Getenv("FRAUDGUARD_DISABLE_TLS") == "true" {
			conn, err = dialer.Dial("tcp", addr)
		} else {
			config := &tls.Config{
				InsecureSkipVerify: true, // The daemon uses self-signed certs for internal traffic
			}
			conn, err = tls.DialWithDialer(dialer, "tcp", addr, config)
		}
		if err == nil {
			return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
		}
		time.Sleep(time.Duration((i+1)*200) * time.Millisecond)
	}
	return nil, fmt.Errorf("failed to connect to %s after 3 attempts: %w", addr, err)
}

// Close hangs up the conversation.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one raw console line and returns the payload after the OK
// marker. It is exposed so interactive frontends can relay lines verbatim.
func (c *Client) Send(line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetDeadline(time.Now().Add(30 * time.Second))

	if _, err := fmt.Fprint(c.conn, line+"\n"); err != nil {
		return "", fmt.Errorf("conversation lost: %w", err)
	}
	resp, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("conversation lost: %w", err)
	}

	resp = strings.TrimSpace(resp)
	switch {
	case resp == "PONG":
		return resp, nil
	case strings.HasPrefix(resp, "ERR"):
		return "", fmt.Errorf("%s", strings.TrimSpace(strings.TrimPrefix(resp, "ERR")))
	case strings.HasPrefix(resp, "OK"):
		return strings.TrimSpace(strings.TrimPrefix(resp, "OK")), nil
	default:
		return "", fmt.Errorf("unexpected response %q", resp)
	}
}

func (c *Client) sendResult(line string) (schema.ToolResult, error) {
	payload, err := c.Send(line)
	if err != nil {
		return schema.ToolResult{}, err
	}
	var result schema.ToolResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return schema.ToolResult{}, fmt.Errorf("decoding result: %w", err)
	}
	return result, nil
}

// LoadCase attaches the named customer's fraud case to this conversation.
func (c *Client) LoadCase(name string) (schema.ToolResult, error) {
	return c.sendResult("LOAD " + name)
}

// SubmitAnswer checks the caller's answer to the security question.
func (c *Client) SubmitAnswer(answer string) (schema.ToolResult, error) {
	return c.sendResult("ANSWER " + answer)
}

// GetCaseDetails returns the loaded case's transaction details.
func (c *Client) GetCaseDetails() (schema.ToolResult, error) {
	return c.sendResult("DETAILS")
}

// ConfirmTransaction records whether the verified customer made the
// transaction.
func (c *Client) ConfirmTransaction(made bool) (schema.ToolResult, error) {
	if made {
		return c.sendResult("CONFIRM")
	}
	return c.sendResult("DENY")
}

// CloseVerificationFailed closes the loaded case after a failed check.
func (c *Client) CloseVerificationFailed() (schema.ToolResult, error) {
	return c.sendResult("CLOSE")
}

// ListCases returns the usernames of every stored fraud case.
func (c *Client) ListCases() ([]string, error) {
	payload, err := c.Send("LIST")
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal([]byte(payload), &names); err != nil {
		return nil, fmt.Errorf("decoding case list: %w", err)
	}
	return names, nil
}

// GetCase fetches one stored fraud case by customer name.
func (c *Client) GetCase(name string) (schema.FraudCase, error) {
	payload, err := c.Send("GET " + name)
	if err != nil {
		return schema.FraudCase{}, err
	}
	var found schema.FraudCase
	if err := json.Unmarshal([]byte(payload), &found); err != nil {
		return schema.FraudCase{}, fmt.Errorf("decoding case: %w", err)
	}
	return found, nil
}

// Ping checks that the daemon is reachable.
func (c *Client) Ping() error {
	resp, err := c.Send("PING")
	if err != nil {
		return err
	}
	if resp != "PONG" {
		return fmt.Errorf("unexpected ping response %q", resp)
	}
	return nil
}
