package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"basegraph.app/agora/internal/model"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultListLimit = 20
	MaxListLimit     = 100
	maxErrorBody     = 4 << 10
)

// ArticleDraft is the body of a new post.
type ArticleDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Client is one authenticated identity on the board. Reads work without a
// session; writes fail with ErrNotAuthenticated until Authenticate succeeds.
// A Client is not meant to be shared between goroutines.
type Client struct {
	baseURL string
	http    *http.Client

	token string
	user  *model.Author
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	User        model.Author `json:"user"`
}

// Authenticate logs in as handle. Any failure leaves the client logged out.
func (c *Client) Authenticate(ctx context.Context, handle, credential string) (*model.Author, error) {
	c.token = ""
	c.user = nil

	var resp loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", loginRequest{Username: handle, Password: credential}, "", &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAuthenticationFailed, handle, err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s: empty access token", ErrAuthenticationFailed, handle)
	}

	c.token = resp.AccessToken
	c.user = &resp.User
	slog.DebugContext(ctx, "board session authenticated", "handle", handle, "display_name", resp.User.Name())
	return c.user, nil
}

func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Identity is the logged-in account, or nil before Authenticate.
func (c *Client) Identity() *model.Author {
	return c.user
}

func (c *Client) PublishArticle(ctx context.Context, boardID int64, draft ArticleDraft) (*model.Article, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}
	var article model.Article
	path := fmt.Sprintf("/boards/%d/posts", boardID)
	if err := c.do(ctx, "publish article", http.MethodPost, path, draft, token, &article); err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) PublishReply(ctx context.Context, articleID int64, content string) (*model.Reply, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}
	var reply model.Reply
	path := fmt.Sprintf("/posts/%d/comments", articleID)
	body := map[string]string{"content": content}
	if err := c.do(ctx, "publish reply", http.MethodPost, path, body, token, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// AttachFile uploads the file at path as a multipart "file" field.
func (c *Client) AttachFile(ctx context.Context, articleID int64, path string) (*model.Attachment, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening attachment: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copying attachment: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(fmt.Sprintf("/posts/%d/attachments", articleID)), &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	var att model.Attachment
	if err := c.send(req, "attach file", &att); err != nil {
		return nil, err
	}
	return &att, nil
}

func (c *Client) FetchArticle(ctx context.Context, articleID int64) (*model.Article, error) {
	var article model.Article
	if err := c.do(ctx, "fetch article", http.MethodGet, fmt.Sprintf("/posts/%d", articleID), nil, "", &article); err != nil {
		return nil, err
	}
	return &article, nil
}

// ListArticles returns the newest articles on a board, newest first. The board
// rejects limits above MaxListLimit, so larger values are clamped.
func (c *Client) ListArticles(ctx context.Context, boardID int64, limit int) ([]model.Article, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	path := fmt.Sprintf("/boards/%d/posts?%s", boardID, q.Encode())

	var articles []model.Article
	if err := c.do(ctx, "list articles", http.MethodGet, path, nil, "", &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// ListReplies returns an article's replies, oldest first.
func (c *Client) ListReplies(ctx context.Context, articleID int64) ([]model.Reply, error) {
	var replies []model.Reply
	if err := c.do(ctx, "list replies", http.MethodGet, fmt.Sprintf("/posts/%d/comments", articleID), nil, "", &replies); err != nil {
		return nil, err
	}
	return replies, nil
}

func (c *Client) requireToken() (string, error) {
	if c.token == "" {
		return "", ErrNotAuthenticated
	}
	return c.token, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func (c *Client) do(ctx context.Context, action, method, path string, body any, token string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s request: %w", action, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.send(req, action, out)
}

func (c *Client) send(req *http.Request, action string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrNetworkFailed, action, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(req.Context(), "board request",
		"action", action,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestError{Action: action, Status: resp.StatusCode, Detail: errorDetail(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", action, err)
	}
	return nil
}

// errorDetail pulls "detail" out of a JSON error body. Validation errors carry
// a structured detail, which is kept as compact JSON.
func errorDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, body.Detail); err == nil {
		return compact.String()
	}
	return string(body.Detail)
}
