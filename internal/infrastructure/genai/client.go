// Package genai implements the effort estimator against a generative
// language HTTP endpoint. The model is prompted for a strict JSON object;
// anything that fails to parse surfaces as an error and the caller falls
// back to the default estimate.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/backend/domain"
	"github.com/campushub/backend/usecase"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
}

func NewClient(endpoint, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

var _ usecase.EffortEstimator = (*Client)(nil)

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Estimate(ctx context.Context, req usecase.EstimateRequest) (*domain.Estimate, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(req)}}}},
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("estimator endpoint returned %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("estimator returned no candidates")
	}

	return parseEstimate(decoded.Candidates[0].Content.Parts[0].Text)
}

func buildPrompt(req usecase.EstimateRequest) string {
	var b strings.Builder
	b.WriteString("You are a university study planner. Based on the assignment title, course, and the provided\n")
	b.WriteString("scraped text content from the course files, estimate the difficulty and time required.\n\n")
	fmt.Fprintf(&b, "Course: %s\n", req.CourseLabel)
	fmt.Fprintf(&b, "Assignment: %s\n", req.TaskLabel)
	fmt.Fprintf(&b, "Link: %s\n\n", req.URL)
	b.WriteString("SCRAPED COURSE CONTENT:\n")
	b.WriteString(req.ContextText)
	b.WriteString("\n\nReturn ONLY a valid JSON object with your estimation:\n")
	b.WriteString(`{"difficulty": 4, "hours": 10, "reason": "...", "breakdown": ["step (2h)", "step (6h)"]}`)
	return b.String()
}

// parseEstimate extracts the first JSON object from the model output;
// models routinely wrap their answer in prose or code fences.
func parseEstimate(text string) (*domain.Estimate, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in estimator output")
	}

	var estimate domain.Estimate
	if err := json.Unmarshal([]byte(text[start:end+1]), &estimate); err != nil {
		return nil, err
	}
	if estimate.Hours <= 0 && estimate.Difficulty <= 0 {
		return nil, fmt.Errorf("estimator output missing required fields")
	}
	return &estimate, nil
}
