// Package client is a thin typed wrapper over the EventHub HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/domain"
)

// FallbackMessage is shown when the server gave no usable message.
const FallbackMessage = "Something went wrong. Please try again."

var ErrMissingToken = errors.New("not logged in: missing auth token")

// APIError is returned for non-2xx responses and for transport or decoding
// failures, which carry Status 0 and the underlying cause in Err.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	public      bool
}

func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	var token string
	if !req.public {
		t, err := c.tokens.Token()
		if err != nil {
			return &APIError{Message: FallbackMessage, Err: err}
		}
		if t == "" {
			return ErrMissingToken
		}
		token = t
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return &APIError{Message: FallbackMessage, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &APIError{Message: FallbackMessage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: FallbackMessage}
		var body struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Message != "" {
			apiErr.Message = body.Message
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: FallbackMessage, Err: err}
	}
	return nil
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResponse{}, err
	}
	var out LoginResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/v1/auth/login",
		body:        bytes.NewReader(body),
		contentType: "application/json",
		public:      true,
	}, &out)
	return out, err
}

func (c *Client) GetMyTickets(ctx context.Context) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := c.do(ctx, request{method: http.MethodGet, path: "/v1/tickets/my-tickets"}, &out)
	return out, err
}

func (c *Client) GetUserStats(ctx context.Context) (domain.UserStats, error) {
	var out struct {
		Stats domain.UserStats `json:"stats"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/v1/users/stats"}, &out)
	return out.Stats, err
}

func (c *Client) CancelTicket(ctx context.Context, id uuid.UUID) (domain.Ticket, error) {
	var out domain.Ticket
	err := c.do(ctx, request{method: http.MethodPost, path: "/v1/tickets/" + id.String() + "/cancel"}, &out)
	return out, err
}

type AvatarResponse struct {
	Avatar string      `json:"avatar"`
	User   domain.User `json:"user"`
}

// UploadAvatar sends r as the multipart field "avatar". The part's content
// type is guessed from the file extension.
func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) (AvatarResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename=%q`, filepath.Base(filename)))
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		hdr.Set("Content-Type", ct)
	} else {
		hdr.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return AvatarResponse{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return AvatarResponse{}, errors.Wrap(err, "read avatar")
	}
	if err := mw.Close(); err != nil {
		return AvatarResponse{}, err
	}

	var out AvatarResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/v1/users/avatar",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	return out, err
}

type NotificationQuery struct {
	Read  string
	Types []string
}

func (c *Client) Notifications(ctx context.Context, q NotificationQuery) ([]domain.Notification, error) {
	values := url.Values{}
	if q.Read != "" {
		values.Set("read", q.Read)
	}
	for _, t := range q.Types {
		values.Add("type", t)
	}
	var out []domain.Notification
	err := c.do(ctx, request{method: http.MethodGet, path: "/v1/notifications", query: values}, &out)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) (domain.Notification, error) {
	var out domain.Notification
	err := c.do(ctx, request{method: http.MethodPost, path: "/v1/notifications/" + id.String() + "/read"}, &out)
	return out, err
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var out struct {
		Updated int `json:"updated"`
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/v1/notifications/read-all"}, &out)
	return out.Updated, err
}
