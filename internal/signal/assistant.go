package signal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Assistant is the HTTP Client for the hosted analysis service. One run is
// created per request; the service reports run status until it reaches a
// terminal state.
type Assistant struct {
	baseURL     string
	apiKey      string
	assistantID string
	client      *http.Client
}

// NewAssistant builds a client for the analysis service.
func NewAssistant(baseURL, apiKey, assistantID string) *Assistant {
	return &Assistant{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		assistantID: assistantID,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

const promptTemplate = "Analyze this news and provide a trading signal in the format 'ACTION SYMBOL' on the first line, and a brief reason on the second. News: %q"

type runRef struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type runResponse struct {
	Text string `json:"text"`
}

func (a *Assistant) Submit(ctx context.Context, text string) (string, error) {
	body := map[string]string{
		"assistant_id": a.assistantID,
		"input":        fmt.Sprintf(promptTemplate, text),
	}
	var ref runRef
	if err := a.do(ctx, http.MethodPost, "/v1/runs", body, &ref); err != nil {
		return "", fmt.Errorf("submit run: %w", err)
	}
	if ref.ID == "" {
		return "", fmt.Errorf("submit run: empty run id")
	}
	return ref.ID, nil
}

func (a *Assistant) Poll(ctx context.Context, handle string) (RunStatus, error) {
	var ref runRef
	if err := a.do(ctx, http.MethodGet, "/v1/runs/"+handle, nil, &ref); err != nil {
		return "", fmt.Errorf("poll run: %w", err)
	}
	switch s := RunStatus(ref.Status); s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return s, nil
	default:
		return StatusPending, nil
	}
}

func (a *Assistant) Fetch(ctx context.Context, handle string) (string, error) {
	var resp runResponse
	if err := a.do(ctx, http.MethodGet, "/v1/runs/"+handle+"/response", nil, &resp); err != nil {
		return "", fmt.Errorf("fetch response: %w", err)
	}
	return resp.Text, nil
}

func (a *Assistant) Cancel(ctx context.Context, handle string) error {
	if err := a.do(ctx, http.MethodPost, "/v1/runs/"+handle+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("cancel run: %w", err)
	}
	return nil
}

func (a *Assistant) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
