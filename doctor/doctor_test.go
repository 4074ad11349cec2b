package doctor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voiceink/config"
)

func TestConfigProblems(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.OpenAI.APIKey = "sk-test"
	assert.Empty(t, configProblems(cfg))

	cfg.Transcription.OpenAI.APIKey = ""
	assert.Equal(t, []string{"transcription.openai.api_key is empty"}, configProblems(cfg))
}

func TestConfigProblemsCustomProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Provider = "custom"
	cfg.Transcription.Custom.APIKey = "k"

	assert.Equal(t, []string{"transcription.custom.api_url is empty"}, configProblems(cfg))
}

func TestConfigProblemsPostProcess(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Groq.APIKey = "gsk"
	cfg.Transcription.Provider = "groq"
	cfg.PostProcess.Enabled = true
	cfg.PostProcess.Provider = "groq"

	// Groq post-processing falls back to the transcription key.
	assert.Empty(t, configProblems(cfg))

	cfg.PostProcess.Provider = "openai"
	assert.Equal(t, []string{"post_process.openai.api_key is empty"}, configProblems(cfg))
}

func TestConfigProblemsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.OpenAI.APIKey = "sk-test"
	cfg.Audio.Channels = 6

	problems := configProblems(cfg)
	if assert.Len(t, problems, 1) {
		assert.Contains(t, problems[0], "invalid config")
	}
}
