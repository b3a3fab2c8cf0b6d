package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/jetscan-audio/jetscan/pkg/audio"
)

const (
	// InworldBaseURL is the Inworld TTS synthesis endpoint
	InworldBaseURL = "https://api.inworld.ai/tts/v1/voice"

	inworldModelID      = "inworld-tts-1.5-max"
	inworldVoiceID      = "Ronald"
	inworldEncoding     = "MP3"
	inworldSpeakingRate = 0.92
	inworldTemperature  = 1.2
)

// Inworld synthesizes speech through the Inworld TTS API. Responses carry
// base64 audio, which gets decoded and padded with a second of leading
// silence to match the other vendors.
type Inworld struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewInworld creates an Inworld vendor. An empty API key leaves it
// registered but unconfigured.
func NewInworld(apiKey string) *Inworld {
	return &Inworld{
		apiKey:     apiKey,
		baseURL:    InworldBaseURL,
		httpClient: newHTTPClient(DefaultTimeout),
	}
}

// WithBaseURL overrides the API endpoint (useful for testing).
func (i *Inworld) WithBaseURL(u string) *Inworld {
	i.baseURL = u
	return i
}

func (i *Inworld) Name() string        { return "inworld" }
func (i *Inworld) DisplayName() string { return "Inworld TTS" }

func (i *Inworld) AudioFormat() (string, string) {
	return "mp3", "audio/mpeg"
}

func (i *Inworld) IsConfigured() (bool, string) {
	if i.apiKey == "" {
		return false, "Inworld API key not configured"
	}
	return true, ""
}

// authorizationHeader builds the Basic credential. Keys from the console
// arrive already base64 encoded; raw "user:secret" pairs get encoded here.
func (i *Inworld) authorizationHeader() string {
	key := strings.TrimSpace(i.apiKey)
	if key == "" {
		return ""
	}

	_, decodeErr := base64.StdEncoding.DecodeString(key)
	if decodeErr != nil || strings.Contains(key, ":") {
		key = base64.StdEncoding.EncodeToString([]byte(key))
	}

	return "Basic " + key
}

type inworldRequest struct {
	Text        string `json:"text"`
	VoiceID     string `json:"voice_id"`
	AudioConfig struct {
		AudioEncoding string  `json:"audio_encoding"`
		SpeakingRate  float64 `json:"speaking_rate"`
	} `json:"audio_config"`
	Temperature float64 `json:"temperature"`
	ModelID     string  `json:"model_id"`
}

type inworldResponse struct {
	AudioContent string `json:"audioContent"`
}

// GenerateAudio synthesizes text and returns MP3 bytes with leading silence.
func (i *Inworld) GenerateAudio(ctx context.Context, text string) ([]byte, string) {
	if ok, reason := i.IsConfigured(); !ok {
		return nil, reason
	}

	payload := inworldRequest{
		Text:        text,
		VoiceID:     inworldVoiceID,
		Temperature: inworldTemperature,
		ModelID:     inworldModelID,
	}
	payload.AudioConfig.AudioEncoding = inworldEncoding
	payload.AudioConfig.SpeakingRate = inworldSpeakingRate

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Sprintf("Inworld request marshal failed: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Sprintf("Inworld request build failed: %v", err)
	}
	req.Header.Set("Authorization", i.authorizationHeader())
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		log.Printf("inworld: request failed: %v", err)
		return nil, fmt.Sprintf("Inworld connection error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("inworld: HTTP %d", resp.StatusCode)
		return nil, fmt.Sprintf("Inworld API returned status %d", resp.StatusCode)
	}

	var parsed inworldResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Sprintf("Inworld response parse failed: %v", err)
	}
	if parsed.AudioContent == "" {
		return nil, "Inworld API response missing audioContent"
	}

	decoded, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		log.Printf("inworld: audio decode failed: %v", err)
		return nil, "Failed to decode Inworld audio"
	}

	return audio.WithLeadingSilence(decoded), ""
}
