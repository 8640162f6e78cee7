package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/studysync/sync-server-go/internal/errors"
)

const (
	assistTimeout = 15 * time.Second
	assistBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// AssistService proxies short prompts to the generative text API. It holds
// no state beyond the API key; without a key the endpoint reports itself
// disabled instead of failing requests downstream.
type AssistService struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewAssistService(apiKey, model string) *AssistService {
	return &AssistService{
		apiKey:  apiKey,
		model:   model,
		baseURL: assistBaseURL,
		client: &http.Client{
			Timeout: assistTimeout,
		},
	}
}

func (s *AssistService) Enabled() bool {
	return s.apiKey != ""
}

type assistPart struct {
	Text string `json:"text"`
}

type assistContent struct {
	Parts []assistPart `json:"parts"`
}

type generateRequest struct {
	Contents []assistContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content assistContent `json:"content"`
	} `json:"candidates"`
}

func (s *AssistService) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []assistContent{{Parts: []assistPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", apperrors.Internal("marshal assist request").WithCause(err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Internal("create assist request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperrors.External("generative api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.External("generative api",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.External("generative api", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.External("generative api", fmt.Errorf("empty response"))
	}

	log.Debug().
		Dur("duration", time.Since(start)).
		Str("model", s.model).
		Msg("assist response received")

	return out.Candidates[0].Content.Parts[0].Text, nil
}
