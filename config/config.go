package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "VOICEINK"

// Config is the full application configuration. Sessions copy what they
// need at start, so a reload never affects a recording in progress.
type Config struct {
	Trigger       TriggerConfig       `mapstructure:"trigger"`
	Audio         AudioConfig         `mapstructure:"audio_settings"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	PostProcess   PostProcessConfig   `mapstructure:"post_process"`
	Text          TextConfig          `mapstructure:"text"`
	General       GeneralConfig       `mapstructure:"general_settings"`
	History       HistoryConfig       `mapstructure:"history_settings"`
}

type TriggerConfig struct {
	Key string `mapstructure:"key" validate:"required"`
}

// AudioConfig times are in seconds.
type AudioConfig struct {
	TriggerPressTime float64 `mapstructure:"trigger_press_time" validate:"gte=0"`
	MinPressTime     float64 `mapstructure:"min_press_time" validate:"gte=0"`
	MaxRecordTime    float64 `mapstructure:"max_record_time" validate:"gtfield=MinPressTime"`
	SampleRate       int     `mapstructure:"sample_rate" validate:"oneof=8000 16000 22050 24000 32000 44100 48000"`
	Channels         int     `mapstructure:"channels" validate:"oneof=1 2"`
	FrameSize        int     `mapstructure:"frame_size" validate:"gte=64,lte=8192"`
	QueueSize        int     `mapstructure:"queue_size" validate:"gte=1"`
	Device           string  `mapstructure:"device"`
}

type Endpoint struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url" validate:"omitempty,url"`
	Model  string `mapstructure:"model"`
}

type CustomEndpoint struct {
	Endpoint `mapstructure:",squash"`
	// TextPath is the dotted JSON path of the transcript in the response.
	TextPath string `mapstructure:"text_path"`
}

type TranscriptionConfig struct {
	Provider   string         `mapstructure:"provider" validate:"oneof=openai groq custom"`
	Language   string         `mapstructure:"language"`
	Format     string         `mapstructure:"format" validate:"oneof=wav flac"`
	OpenAI     Endpoint       `mapstructure:"openai"`
	Groq       Endpoint       `mapstructure:"groq"`
	Custom     CustomEndpoint `mapstructure:"custom"`
	Timeout    time.Duration  `mapstructure:"timeout" validate:"gt=0"`
	MaxRetry   int            `mapstructure:"max_retry" validate:"gte=0,lte=5"`
	RetryDelay time.Duration  `mapstructure:"retry_delay" validate:"gte=0"`
	// NoSpeechThreshold filters silent segments from verbose responses.
	NoSpeechThreshold float64 `mapstructure:"no_speech_threshold" validate:"gte=0,lte=1"`
}

type PostProcessConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider" validate:"oneof=openai groq"`
	Prompt   string        `mapstructure:"prompt" validate:"required_if=Enabled true"`
	OpenAI   Endpoint      `mapstructure:"openai"`
	Groq     Endpoint      `mapstructure:"groq"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type TextConfig struct {
	RemovePunctuation bool   `mapstructure:"remove_punctuation"`
	PunctuationSet    string `mapstructure:"punctuation_to_remove"`
	RemoveEmoji       bool   `mapstructure:"remove_emoji"`
}

type GeneralConfig struct {
	InsertMethod     string `mapstructure:"insert_method" validate:"oneof=clipboard keyboard none"`
	RestoreClipboard bool   `mapstructure:"restore_clipboard"`
	Notify           bool   `mapstructure:"notify"`
	Beep             bool   `mapstructure:"beep"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	MaxDays int    `mapstructure:"max_days" validate:"gte=1"`
	Path    string `mapstructure:"path"`
}

// Timing is the per-session copy of the gesture and recording limits.
type Timing struct {
	TriggerPress time.Duration
	MinPress     time.Duration
	MaxRecord    time.Duration
}

func (c Config) Timing() Timing {
	return Timing{
		TriggerPress: seconds(c.Audio.TriggerPressTime),
		MinPress:     seconds(c.Audio.MinPressTime),
		MaxRecord:    seconds(c.Audio.MaxRecordTime),
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// PostProcessEndpoint resolves the credentials used for post-processing.
// Groq post-processing borrows the transcription Groq key and URL unless
// its own are set.
func (c Config) PostProcessEndpoint() Endpoint {
	if c.PostProcess.Provider != "groq" {
		return c.PostProcess.OpenAI
	}
	ep := c.PostProcess.Groq
	if ep.APIKey == "" {
		ep.APIKey = c.Transcription.Groq.APIKey
	}
	if ep.APIURL == "" {
		ep.APIURL = c.Transcription.Groq.APIURL
	}
	return ep
}

// TranscriptionEndpoint returns the credentials of the selected provider.
func (c Config) TranscriptionEndpoint() Endpoint {
	switch c.Transcription.Provider {
	case "groq":
		return c.Transcription.Groq
	case "custom":
		return c.Transcription.Custom.Endpoint
	default:
		return c.Transcription.OpenAI
	}
}

func Default() Config {
	return Config{
		Trigger: TriggerConfig{Key: "ctrl_l"},
		Audio: AudioConfig{
			TriggerPressTime: 0.1,
			MinPressTime:     0.3,
			MaxRecordTime:    60,
			SampleRate:       44100,
			Channels:         1,
			FrameSize:        256,
			QueueSize:        512,
		},
		Transcription: TranscriptionConfig{
			Provider: "openai",
			Language: "zh",
			Format:   "wav",
			OpenAI: Endpoint{
				APIURL: "https://api.openai.com/v1",
				Model:  "whisper-1",
			},
			Groq: Endpoint{
				APIURL: "https://api.groq.com/openai/v1",
				Model:  "whisper-large-v3",
			},
			Custom:     CustomEndpoint{TextPath: "text"},
			Timeout:    60 * time.Second,
			MaxRetry:   2,
			RetryDelay: 500 * time.Millisecond,

			NoSpeechThreshold: 0.6,
		},
		PostProcess: PostProcessConfig{
			Provider: "openai",
			Prompt:   "修正文本中的错误，保持原意",
			OpenAI: Endpoint{
				APIURL: "https://api.openai.com/v1",
				Model:  "gpt-3.5-turbo",
			},
			Groq:    Endpoint{Model: "mixtral-8x7b-32768"},
			Timeout: 30 * time.Second,
		},
		Text: TextConfig{
			RemovePunctuation: true,
			PunctuationSet:    "。，,.?？！!",
			RemoveEmoji:       true,
		},
		General: GeneralConfig{
			InsertMethod:     "clipboard",
			RestoreClipboard: true,
			Beep:             true,
		},
		History: HistoryConfig{
			Enabled: true,
			MaxDays: 30,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("trigger.key", d.Trigger.Key)

	v.SetDefault("audio_settings.trigger_press_time", d.Audio.TriggerPressTime)
	v.SetDefault("audio_settings.min_press_time", d.Audio.MinPressTime)
	v.SetDefault("audio_settings.max_record_time", d.Audio.MaxRecordTime)
	v.SetDefault("audio_settings.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio_settings.channels", d.Audio.Channels)
	v.SetDefault("audio_settings.frame_size", d.Audio.FrameSize)
	v.SetDefault("audio_settings.queue_size", d.Audio.QueueSize)
	v.SetDefault("audio_settings.device", d.Audio.Device)

	v.SetDefault("transcription.provider", d.Transcription.Provider)
	v.SetDefault("transcription.language", d.Transcription.Language)
	v.SetDefault("transcription.format", d.Transcription.Format)
	setEndpoint(v, "transcription.openai", d.Transcription.OpenAI)
	setEndpoint(v, "transcription.groq", d.Transcription.Groq)
	setEndpoint(v, "transcription.custom", d.Transcription.Custom.Endpoint)
	v.SetDefault("transcription.custom.text_path", d.Transcription.Custom.TextPath)
	v.SetDefault("transcription.timeout", d.Transcription.Timeout)
	v.SetDefault("transcription.max_retry", d.Transcription.MaxRetry)
	v.SetDefault("transcription.retry_delay", d.Transcription.RetryDelay)
	v.SetDefault("transcription.no_speech_threshold", d.Transcription.NoSpeechThreshold)

	v.SetDefault("post_process.enabled", d.PostProcess.Enabled)
	v.SetDefault("post_process.provider", d.PostProcess.Provider)
	v.SetDefault("post_process.prompt", d.PostProcess.Prompt)
	setEndpoint(v, "post_process.openai", d.PostProcess.OpenAI)
	setEndpoint(v, "post_process.groq", d.PostProcess.Groq)
	v.SetDefault("post_process.timeout", d.PostProcess.Timeout)

	v.SetDefault("text.remove_punctuation", d.Text.RemovePunctuation)
	v.SetDefault("text.punctuation_to_remove", d.Text.PunctuationSet)
	v.SetDefault("text.remove_emoji", d.Text.RemoveEmoji)

	v.SetDefault("general_settings.insert_method", d.General.InsertMethod)
	v.SetDefault("general_settings.restore_clipboard", d.General.RestoreClipboard)
	v.SetDefault("general_settings.notify", d.General.Notify)
	v.SetDefault("general_settings.beep", d.General.Beep)

	v.SetDefault("history_settings.enabled", d.History.Enabled)
	v.SetDefault("history_settings.max_days", d.History.MaxDays)
	v.SetDefault("history_settings.path", d.History.Path)
}

func setEndpoint(v *viper.Viper, prefix string, ep Endpoint) {
	v.SetDefault(prefix+".api_key", ep.APIKey)
	v.SetDefault(prefix+".api_url", ep.APIURL)
	v.SetDefault(prefix+".model", ep.Model)
}

// newViper builds a viper instance for path. An empty path searches the
// user config directory and the working directory for config.{json,yaml,toml}.
func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if dir, err := DefaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	// VOICEINK_TRANSCRIPTION__GROQ__API_KEY -> transcription.groq.api_key
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()
	return v
}

func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voiceink"), nil
}

func read(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("reading config: %w", err)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the config file at path (or the default locations), applies
// VOICEINK_* environment overrides and validates the result. A missing
// file is not an error.
func Load(path string) (Config, error) {
	v := newViper(path)
	if err := read(v); err != nil {
		return Config{}, err
	}
	return decode(v)
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	v := viper.New()
	setDefaults(v)
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
