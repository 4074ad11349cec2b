package main

import (
	"net/http"

	"voiceink/config"
	"voiceink/encoder"
	"voiceink/pipeline"
	"voiceink/postprocess"
	"voiceink/textproc"
	"voiceink/transcriber"
)

// newPipelineBuilder maps one configuration snapshot onto a pipeline. All
// pipelines share client so connections are reused across sessions.
func newPipelineBuilder(client *transcriber.TracedClient) func(config.Config) (*pipeline.Pipeline, error) {
	if client == nil {
		client = transcriber.NewTracedClient()
	}
	return func(cfg config.Config) (*pipeline.Pipeline, error) {
		provider, err := transcriber.ParseProvider(cfg.Transcription.Provider)
		if err != nil {
			return nil, err
		}
		format, err := encoder.ParseFormat(cfg.Transcription.Format)
		if err != nil {
			return nil, err
		}

		ep := cfg.TranscriptionEndpoint()
		p := &pipeline.Pipeline{
			Transcriber: transcriber.New(provider, transcriber.Credentials{
				APIKey:   ep.APIKey,
				APIURL:   ep.APIURL,
				Model:    ep.Model,
				TextPath: cfg.Transcription.Custom.TextPath,
			}, transcriber.Options{
				Timeout:    cfg.Transcription.Timeout,
				MaxRetry:   cfg.Transcription.MaxRetry,
				RetryDelay: cfg.Transcription.RetryDelay,
				Client:     client,
			}),
			Normalizer: textproc.Normalizer{
				RemovePunctuation: cfg.Text.RemovePunctuation,
				PunctuationSet:    cfg.Text.PunctuationSet,
				RemoveEmoji:       cfg.Text.RemoveEmoji,
			},
			Format:            format,
			Language:          cfg.Transcription.Language,
			NoSpeechThreshold: cfg.Transcription.NoSpeechThreshold,
		}

		if cfg.PostProcess.Enabled {
			pp, err := newPostProcessor(cfg, client.HTTP())
			if err != nil {
				return nil, err
			}
			p.PostProcessor = pp
		}
		return p, nil
	}
}

func newPostProcessor(cfg config.Config, hc *http.Client) (postprocess.PostProcessor, error) {
	provider, err := postprocess.ParseProvider(cfg.PostProcess.Provider)
	if err != nil {
		return nil, err
	}
	ep := cfg.PostProcessEndpoint()
	return postprocess.New(provider, postprocess.Credentials{
		APIKey: ep.APIKey,
		APIURL: ep.APIURL,
		Model:  ep.Model,
	}, cfg.PostProcess.Prompt, cfg.PostProcess.Timeout, hc), nil
}
