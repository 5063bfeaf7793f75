package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const wikiEndpoint = "https://en.wikipedia.org/w/api.php"

var wikiTagPattern = regexp.MustCompile(`<[^>]+>`)

// WikiSearch searches Wikipedia for a subject and returns the top matches.
type WikiSearch struct {
	httpClient *http.Client
}

func NewWikiSearch() *WikiSearch {
	return &WikiSearch{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (t *WikiSearch) Name() string {
	return "wiki_search"
}

func (t *WikiSearch) Description() string {
	return "Search Wikipedia. Useful for finding information about new or unknown subjects and topics."
}

func (t *WikiSearch) Parameters() []Parameter {
	return []Parameter{
		{
			Name:        "query",
			Type:        "string",
			Description: "A targeted search query or subject.",
		},
	}
}

func (t *WikiSearch) Run(ctx context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", "3")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikiEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia request failed (%d)", resp.StatusCode)
	}

	var parsed struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode wikipedia response: %w", err)
	}
	if len(parsed.Query.Search) == 0 {
		return "no results found", nil
	}

	var lines []string
	for _, r := range parsed.Query.Search {
		snippet := wikiTagPattern.ReplaceAllString(r.Snippet, "")
		lines = append(lines, fmt.Sprintf("%s: %s", r.Title, snippet))
	}
	return strings.Join(lines, "\n"), nil
}
