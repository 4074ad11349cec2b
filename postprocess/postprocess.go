// Package postprocess sends a normalized transcript through a chat model
// with a fixed instruction, for example to fix recognition mistakes.
package postprocess

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Provider int

const (
	OpenAI Provider = iota
	Groq
)

func (p Provider) String() string {
	if p == Groq {
		return "groq"
	}
	return "openai"
}

func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai", "":
		return OpenAI, nil
	case "groq":
		return Groq, nil
	}
	return 0, fmt.Errorf("unknown post-process provider %q", s)
}

var defaultURLs = map[Provider]string{
	OpenAI: "https://api.openai.com/v1",
	Groq:   "https://api.groq.com/openai/v1",
}

var (
	ErrNoAPIKey      = errors.New("api key is not configured")
	ErrEmptyResponse = errors.New("empty response")
)

// Error is a failed post-process call. It is never fatal; callers keep the
// text they passed in.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("post-process (%s): %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Credentials struct {
	APIKey string
	APIURL string
	Model  string
}

// PostProcessor rewrites text. Implementations return *Error on failure.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, text string) (string, error)
}

type Client struct {
	provider Provider
	creds    Credentials
	prompt   string
	timeout  time.Duration
	client   openai.Client
}

func New(p Provider, creds Credentials, prompt string, timeout time.Duration, httpClient *http.Client) *Client {
	if creds.APIURL == "" {
		creds.APIURL = defaultURLs[p]
	}
	opts := []option.RequestOption{
		option.WithAPIKey(creds.APIKey),
		option.WithBaseURL(strings.TrimRight(creds.APIURL, "/") + "/"),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &Client{
		provider: p,
		creds:    creds,
		prompt:   prompt,
		timeout:  timeout,
		client:   openai.NewClient(opts...),
	}
}

func (c *Client) Name() string { return c.provider.String() }

func (c *Client) Process(ctx context.Context, text string) (string, error) {
	if c.creds.APIKey == "" {
		return "", &Error{Provider: c.Name(), Err: ErrNoAPIKey}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.creds.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.prompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", &Error{Provider: c.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Provider: c.Name(), Err: ErrEmptyResponse}
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", &Error{Provider: c.Name(), Err: ErrEmptyResponse}
	}
	return out, nil
}
