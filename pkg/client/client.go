// Package client is a Go client for the sparrow messaging API. It wraps
// the HTTP surface and the WebSocket event stream and folds pushed events
// into a ChatState the caller reads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sparrowchat/sparrow/internal/domain"
	"github.com/sparrowchat/sparrow/internal/ws"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client

	State *ChatState

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
}

func New(baseURL, token, selfID string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		State:   NewChatState(selfID),
	}
}

// Connect opens the WebSocket stream and starts folding pushed events
// into State. It returns once the handshake completes; Close stops the
// stream.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("client: parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("client: dial ws: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("client: dial ws: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Done is closed when the event stream ends.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer close(c.done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := ws.Decode(raw)
		if err != nil {
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env *ws.Envelope) {
	switch env.Event {
	case ws.EventNewMessage:
		var msg domain.Message
		if env.DecodeData(&msg) == nil {
			c.State.ApplyNewMessage(&msg)
		}
	case ws.EventMessagesSeen:
		var p ws.SeenPayload
		if env.DecodeData(&p) == nil {
			c.State.ApplySeen(p.From)
		}
	case ws.EventOnlineUsers:
		var online []string
		if env.DecodeData(&online) == nil {
			c.State.SetOnline(online)
		}
	case ws.EventUserTyping:
		c.State.SetPeerTyping(true)
	case ws.EventUserStopTyping:
		c.State.SetPeerTyping(false)
	}
}

// Typing signals the peer that the user is composing a message.
func (c *Client) Typing(peerID string) error {
	return c.writeEvent(ws.EventTyping, ws.TypingPayload{To: peerID})
}

func (c *Client) StopTyping(peerID string) error {
	return c.writeEvent(ws.EventStopTyping, ws.TypingPayload{To: peerID})
}

func (c *Client) writeEvent(event string, data any) error {
	payload, err := ws.Encode(event, data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("client: not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Send delivers text and an optional inline image to a peer. When the
// pair has no history yet the server queues a request instead; queued
// reports that and the message is nil.
func (c *Client) Send(ctx context.Context, peerID, text, image string) (msg *domain.Message, queued bool, err error) {
	body := map[string]string{"text": text, "image": image}

	resp, err := c.do(ctx, http.MethodPost, "/api/messages/send/"+peerID, body)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var m domain.Message
		if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
			return nil, false, fmt.Errorf("client: decode message: %w", err)
		}
		c.State.ApplyNewMessage(&m)
		return &m, false, nil
	case http.StatusOK:
		var q struct {
			Pending bool `json:"pending"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
			return nil, false, fmt.Errorf("client: decode send response: %w", err)
		}
		if !q.Pending {
			return nil, false, fmt.Errorf("client: unexpected send response")
		}
		return nil, true, nil
	default:
		return nil, false, apiError(resp)
	}
}

// LoadConversation fetches the history with a peer and installs it as
// the open conversation.
func (c *Client) LoadConversation(ctx context.Context, peerID string) error {
	c.State.OpenConversation(peerID)

	resp, err := c.do(ctx, http.MethodGet, "/api/messages/"+peerID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var out struct {
		Messages         []*domain.Message `json:"messages"`
		IsRequestPending bool              `json:"isRequestPending"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("client: decode conversation: %w", err)
	}

	c.State.ConversationLoaded(peerID, out.Messages, out.IsRequestPending)
	return nil
}

// Contacts refreshes the sidebar.
func (c *Client) Contacts(ctx context.Context) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	if err := c.getJSON(ctx, "/api/messages/contacts", &contacts); err != nil {
		return nil, err
	}
	c.State.SetContacts(contacts)
	return contacts, nil
}

// Requests refreshes the pending message requests.
func (c *Client) Requests(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	if err := c.getJSON(ctx, "/api/messages/requests", &users); err != nil {
		return nil, err
	}
	c.State.SetRequests(users)
	return users, nil
}

func (c *Client) AcceptRequest(ctx context.Context, userID string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/messages/accept/"+userID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	c.State.RemoveRequest(userID)
	return nil
}

func (c *Client) Block(ctx context.Context, userID string) error {
	resp, err := c.do(ctx, http.MethodPut, "/api/messages/block/"+userID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	c.State.RemoveRequest(userID)
	return nil
}

func (c *Client) Search(ctx context.Context, query string) ([]*domain.User, error) {
	var users []*domain.User
	err := c.getJSON(ctx, "/api/users/search?query="+url.QueryEscape(query), &users)
	return users, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func apiError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("client: unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("client: %s: %s", body.Error, body.Message)
}
