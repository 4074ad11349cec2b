package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

type parseFunc func(body []byte) (*Result, error)

// compatible speaks the OpenAI audio transcription API, which Groq also
// implements.
type compatible struct {
	name  string
	creds Credentials
	opts  Options
	parse parseFunc
}

func newCompatible(name string, creds Credentials, opts Options, parse parseFunc) *compatible {
	return &compatible{name: name, creds: creds, opts: opts, parse: parse}
}

func (c *compatible) Name() string { return c.name }

func (c *compatible) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if c.creds.APIKey == "" {
		return nil, &ConfigError{Provider: c.name, Field: "api_key"}
	}
	if c.creds.APIURL == "" {
		return nil, &ConfigError{Provider: c.name, Field: "api_url"}
	}

	fields := map[string]string{"model": c.creds.Model}
	if c.name == "groq" {
		fields["response_format"] = "verbose_json"
	} else {
		fields["response_format"] = "json"
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	body, contentType, err := multipartBody(req, fields)
	if err != nil {
		return nil, &Error{Provider: c.name, Err: err}
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	url := strings.TrimRight(c.creds.APIURL, "/") + "/audio/transcriptions"
	resp, attempts, err := c.opts.Client.post(ctx, c.name, url, c.creds.APIKey, contentType, body, c.opts)
	if err != nil {
		return nil, err
	}

	result, err := c.parse(resp.Body)
	if err != nil {
		return nil, &Error{Provider: c.name, Status: resp.StatusCode, Err: err}
	}
	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")
	result.RateLimit = remaining + "/" + limit
	result.Metrics = resp.Metrics
	result.Attempts = attempts
	return result, nil
}

// multipartBody writes the audio as the "file" part followed by fields.
// Empty field values are skipped.
func multipartBody(req Request, fields map[string]string) ([]byte, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, req.Format.Filename()))
	h.Set("Content-Type", req.Format.MIME())
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, "", err
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func parseJSON(body []byte) (*Result, error) {
	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("response parse error: %w", err)
	}
	return &Result{Text: resp.Text}, nil
}
