package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const serperEndpoint = "https://google.serper.dev/search"

// InternetSearch searches the web through the Serper API. Useful for
// questions about current events the model cannot answer from training data.
type InternetSearch struct {
	apiKey     string
	httpClient *http.Client
}

func NewInternetSearch(apiKey string) *InternetSearch {
	return &InternetSearch{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *InternetSearch) Name() string {
	return "internet_search"
}

func (t *InternetSearch) Description() string {
	return "Search the internet. Useful for finding up-to-date information about current events."
}

func (t *InternetSearch) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "query",
			Type:        "string",
			Description: "A targeted search query.",
		},
	}
}

func (t *InternetSearch) Run(ctx context.Context, args map[string]any) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("internet search is not configured")
	}
	query, _ := args["query"].(string)

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("search request failed (%d): %s", resp.StatusCode, raw)
	}

	var parsed struct {
		Answer struct {
			Answer  string `json:"answer"`
			Snippet string `json:"snippet"`
		} `json:"answerBox"`
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	var lines []string
	if parsed.Answer.Answer != "" {
		lines = append(lines, parsed.Answer.Answer)
	} else if parsed.Answer.Snippet != "" {
		lines = append(lines, parsed.Answer.Snippet)
	}
	for i, r := range parsed.Organic {
		if i >= 5 {
			break
		}
		lines = append(lines, fmt.Sprintf("%s - %s (%s)", r.Title, r.Snippet, r.Link))
	}
	if len(lines) == 0 {
		return "no results found", nil
	}
	return strings.Join(lines, "\n"), nil
}
