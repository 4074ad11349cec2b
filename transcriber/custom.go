package transcriber

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"
)

// custom posts the audio to an arbitrary endpoint and pulls the transcript
// out of the JSON response by a dotted path such as "result.items[0].text".
// Any gjson path works too, e.g. "result.items.#.text|0".
type custom struct {
	creds Credentials
	opts  Options
}

func newCustom(creds Credentials, opts Options) *custom {
	if creds.TextPath == "" {
		creds.TextPath = "text"
	}
	return &custom{creds: creds, opts: opts}
}

func (c *custom) Name() string { return "custom" }

func (c *custom) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if c.creds.APIURL == "" {
		return nil, &ConfigError{Provider: "custom", Field: "api_url"}
	}
	if c.creds.APIKey == "" {
		return nil, &ConfigError{Provider: "custom", Field: "api_key"}
	}

	body, contentType, err := multipartBody(req, map[string]string{"model": c.creds.Model})
	if err != nil {
		return nil, &Error{Provider: "custom", Err: err}
	}
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	resp, attempts, err := c.opts.Client.post(ctx, "custom", c.creds.APIURL, c.creds.APIKey, contentType, body, c.opts)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, &Error{Provider: "custom", Status: resp.StatusCode, Err: errors.New("response parse error: invalid JSON")}
	}
	text, ok := extractPath(resp.Body, c.creds.TextPath)
	if !ok {
		return nil, &Error{Provider: "custom", Status: resp.StatusCode, Err: fmt.Errorf("no text at %q in response", c.creds.TextPath)}
	}
	return &Result{Text: text, Metrics: resp.Metrics, Attempts: attempts}, nil
}

var indexSyntax = regexp.MustCompile(`\[(\d+)\]`)

// extractPath resolves path against body. Bracketed indexes are rewritten
// to gjson's dotted form. Only scalar values count as text.
func extractPath(body []byte, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	r := gjson.GetBytes(body, indexSyntax.ReplaceAllString(path, ".$1"))
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return r.String(), true
	}
	return "", false
}
