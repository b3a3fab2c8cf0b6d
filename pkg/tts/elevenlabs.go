package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

const (
	// ElevenLabsBaseURL is the ElevenLabs API v1 base URL
	ElevenLabsBaseURL = "https://api.elevenlabs.io/v1"

	// elevenLabsVoiceID selects the default narrator voice
	elevenLabsVoiceID = "goT3UYdM9bhm0n2lmKQx"

	// elevenLabsModelID is the low-latency synthesis model
	elevenLabsModelID = "eleven_turbo_v2"
)

// ElevenLabs synthesizes speech through the ElevenLabs text-to-speech API.
type ElevenLabs struct {
	apiKey     string
	baseURL    string
	voiceID    string
	httpClient *http.Client
}

// NewElevenLabs creates an ElevenLabs vendor. An empty API key leaves it
// registered but unconfigured.
func NewElevenLabs(apiKey string) *ElevenLabs {
	return &ElevenLabs{
		apiKey:     apiKey,
		baseURL:    ElevenLabsBaseURL,
		voiceID:    elevenLabsVoiceID,
		httpClient: newHTTPClient(DefaultTimeout),
	}
}

// WithBaseURL overrides the API endpoint (useful for testing).
func (e *ElevenLabs) WithBaseURL(u string) *ElevenLabs {
	e.baseURL = u
	return e
}

func (e *ElevenLabs) Name() string        { return "elevenlabs" }
func (e *ElevenLabs) DisplayName() string { return "ElevenLabs" }

func (e *ElevenLabs) AudioFormat() (string, string) {
	return "mp3", "audio/mpeg"
}

func (e *ElevenLabs) IsConfigured() (bool, string) {
	if e.apiKey == "" {
		return false, "ElevenLabs API key not configured"
	}
	return true, ""
}

type elevenLabsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

// GenerateAudio synthesizes text through the streaming endpoint. A leading
// SSML break gives the listener a beat of silence before narration starts.
func (e *ElevenLabs) GenerateAudio(ctx context.Context, text string) ([]byte, string) {
	if ok, reason := e.IsConfigured(); !ok {
		return nil, reason
	}

	payload := elevenLabsRequest{
		Text:    `<break time="1s"/>` + text,
		ModelID: elevenLabsModelID,
	}
	payload.VoiceSettings.Stability = 0.6
	payload.VoiceSettings.SimilarityBoost = 0.5

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Sprintf("ElevenLabs request marshal failed: %v", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Sprintf("ElevenLabs request build failed: %v", err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		log.Printf("elevenlabs: request failed: %v", err)
		return nil, fmt.Sprintf("ElevenLabs connection error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("elevenlabs: HTTP %d", resp.StatusCode)
		return nil, fmt.Sprintf("ElevenLabs API returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Sprintf("ElevenLabs response read failed: %v", err)
	}
	if len(audio) == 0 {
		return nil, "ElevenLabs returned empty audio"
	}

	return audio, ""
}
