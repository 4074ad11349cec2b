package transcriber

import (
	"encoding/json"
	"fmt"
)

type verboseResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text         string  `json:"text"`
		NoSpeechProb float64 `json:"no_speech_prob"`
		AvgLogProb   float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// parseVerbose reads a verbose_json response. NoSpeechProb is the highest
// of any segment.
func parseVerbose(body []byte) (*Result, error) {
	var v verboseResponse
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("response parse error: %w", err)
	}

	r := &Result{Text: v.Text, Duration: v.Duration}
	for _, seg := range v.Segments {
		r.NoSpeechProb = max(r.NoSpeechProb, seg.NoSpeechProb)
		r.Segments = append(r.Segments, Segment{
			Text:         seg.Text,
			NoSpeechProb: seg.NoSpeechProb,
			AvgLogProb:   seg.AvgLogProb,
		})
	}
	return r, nil
}
