package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"voiceink/encoder"
)

func TestNetworkMetricsSum(t *testing.T) {
	m := &NetworkMetrics{
		ConnWait:   10 * time.Millisecond,
		DNS:        20 * time.Millisecond,
		TCP:        30 * time.Millisecond,
		TLS:        40 * time.Millisecond,
		ReqHeaders: 5 * time.Millisecond,
		ReqBody:    15 * time.Millisecond,
		TTFB:       50 * time.Millisecond,
		Download:   25 * time.Millisecond,
	}
	got := m.Sum()
	want := 195 * time.Millisecond
	if got != want {
		t.Errorf("Sum() = %v, want %v", got, want)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	h := http.Header{}
	h.Set("X-Rate-Limit", "100")

	if got := firstNonEmpty(h, "X-Missing", "X-Rate-Limit"); got != "100" {
		t.Errorf("got %q, want %q", got, "100")
	}
	if got := firstNonEmpty(h, "X-A", "X-B"); got != "?" {
		t.Errorf("got %q, want %q", got, "?")
	}
}

func TestParseProvider(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Provider
	}{
		{"openai", OpenAI},
		{"", OpenAI},
		{"Groq", Groq},
		{" custom ", Custom},
	} {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProvider(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
	if _, err := ParseProvider("deepgram"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

var wavRequest = Request{Audio: []byte("RIFF-fake-audio"), Format: encoder.WAV, Language: "zh"}

func fastOpts() Options {
	return Options{Timeout: 5 * time.Second, MaxRetry: 2, RetryDelay: time.Millisecond}
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("language"); got != "zh" {
			t.Errorf("language = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		data, _ := io.ReadAll(f)
		if string(data) != "RIFF-fake-audio" || hdr.Filename != "audio.wav" {
			t.Errorf("file = %q (%s)", data, hdr.Filename)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("file Content-Type = %q", ct)
		}
		w.Header().Set("x-ratelimit-remaining-requests", "99")
		w.Header().Set("x-ratelimit-limit-requests", "100")
		w.Write([]byte(`{"text":"你好世界。"}`))
	}))
	defer srv.Close()

	tr := New(OpenAI, Credentials{APIKey: "sk-test", APIURL: srv.URL + "/v1/", Model: "whisper-1"}, fastOpts())
	res, err := tr.Transcribe(context.Background(), wavRequest)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "你好世界。" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.RateLimit != "99/100" {
		t.Errorf("RateLimit = %q", res.RateLimit)
	}
	if res.Attempts != 1 || res.Metrics == nil {
		t.Errorf("Attempts = %d, Metrics = %v", res.Attempts, res.Metrics)
	}
	if tr.Name() != "openai" {
		t.Errorf("Name = %q", tr.Name())
	}
}

func TestGroqVerboseResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		w.Write([]byte(`{"text":"hi","duration":1.5,"segments":[
			{"text":"hi","start":0,"end":1.5,"no_speech_prob":0.2,"avg_logprob":-0.3},
			{"text":"","start":1.5,"end":1.5,"no_speech_prob":0.7,"avg_logprob":-1}]}`))
	}))
	defer srv.Close()

	tr := New(Groq, Credentials{APIKey: "gsk", APIURL: srv.URL, Model: "whisper-large-v3"}, fastOpts())
	res, err := tr.Transcribe(context.Background(), wavRequest)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "hi" || res.Duration != 1.5 || len(res.Segments) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.NoSpeechProb != 0.7 {
		t.Errorf("NoSpeechProb = %v, want 0.7", res.NoSpeechProb)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	tr := New(OpenAI, Credentials{APIKey: "k", APIURL: srv.URL}, fastOpts())
	res, err := tr.Transcribe(context.Background(), wavRequest)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Attempts != 3 || calls.Load() != 3 {
		t.Errorf("Attempts = %d, calls = %d, want 3", res.Attempts, calls.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := fastOpts()
	opts.MaxRetry = 1
	_, err := New(OpenAI, Credentials{APIKey: "k", APIURL: srv.URL}, opts).Transcribe(context.Background(), wavRequest)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(Groq, Credentials{APIKey: "bad", APIURL: srv.URL}, fastOpts()).Transcribe(context.Background(), wavRequest)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Retryable() {
		t.Errorf("Status = %d, Retryable = %v", apiErr.Status, apiErr.Retryable())
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestMissingCredentials(t *testing.T) {
	for _, tt := range []struct {
		name  string
		p     Provider
		creds Credentials
		field string
	}{
		{"openai key", OpenAI, Credentials{APIURL: "http://x"}, "api_key"},
		{"groq url", Groq, Credentials{APIKey: "k"}, "api_url"},
		{"custom url", Custom, Credentials{APIKey: "k"}, "api_url"},
		{"custom key", Custom, Credentials{APIURL: "http://x"}, "api_key"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p, tt.creds, fastOpts()).Transcribe(context.Background(), wavRequest)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("err = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestCustomTextPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/asr" {
			t.Errorf("path = %s", r.URL.Path)
		}
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("model"); got != "sensevoice" {
			t.Errorf("model = %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Write([]byte(`{"data":{"results":[{"text":"first"},{"text":"second"}]}}`))
	}))
	defer srv.Close()

	creds := Credentials{APIKey: "k", APIURL: srv.URL + "/asr", Model: "sensevoice", TextPath: "data.results[1].text"}
	res, err := New(Custom, creds, fastOpts()).Transcribe(context.Background(), wavRequest)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "second" {
		t.Errorf("Text = %q, want second", res.Text)
	}
}

func TestCustomMissingTextPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"x"}`))
	}))
	defer srv.Close()

	_, err := New(Custom, Credentials{APIKey: "k", APIURL: srv.URL}, fastOpts()).Transcribe(context.Background(), wavRequest)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
}

func TestExtractPath(t *testing.T) {
	body := []byte(`{"text":"top","n":42,"ok":true,"items":[{"v":"a"},["b","c"]],"obj":{"k":"v"}}`)
	for _, tt := range []struct {
		path string
		want string
		ok   bool
	}{
		{"text", "top", true},
		{"n", "42", true},
		{"ok", "true", true},
		{"items[0].v", "a", true},
		{"items[1][1]", "c", true},
		{"items.1.0", "b", true},
		{"items[5]", "", false},
		{"missing", "", false},
		{"items[x]", "", false},
		{"text.deeper", "", false},
		{"obj", "", false},
		{"", "", false},
	} {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := extractPath(body, tt.path)
			if got != tt.want || ok != tt.ok {
				t.Errorf("extractPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCustomInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "unterminated`))
	}))
	defer srv.Close()

	_, err := New(Custom, Credentials{APIKey: "k", APIURL: srv.URL}, fastOpts()).Transcribe(context.Background(), wavRequest)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", apiErr.Status)
	}
}

func TestContextCancelStopsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	opts := fastOpts()
	opts.MaxRetry = 5
	opts.RetryDelay = time.Hour
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := New(OpenAI, Credentials{APIKey: "k", APIURL: srv.URL}, opts).Transcribe(ctx, wavRequest)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFake(t *testing.T) {
	f := NewFake("hello", nil)
	res, err := f.Transcribe(context.Background(), wavRequest)
	if err != nil || res.Text != "hello" {
		t.Fatalf("got %v, %v", res, err)
	}
	f.Err = errors.New("boom")
	if _, err := f.Transcribe(context.Background(), wavRequest); err == nil {
		t.Error("expected error")
	}
	if f.Calls() != 2 {
		t.Errorf("Calls = %d", f.Calls())
	}
}

func TestErrorRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		e := &Error{Provider: "openai", Status: tt.status}
		if got := e.Retryable(); got != tt.want {
			t.Errorf("status %d: Retryable = %v, want %v", tt.status, got, tt.want)
		}
	}
}
