package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// MovieClient talks to the external movie-suggestion API backing the
// autocomplete box.
type MovieClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewMovieClient() *MovieClient {
	return &MovieClient{
		baseURL: viper.GetString("movies.api_url"),
		apiKey:  viper.GetString("movies.api_key"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Suggestions returns movie titles matching term.
func (m *MovieClient) Suggestions(term string) ([]string, error) {
	u, err := url.Parse(m.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid movie API url, %w", err)
	}

	q := u.Query()
	q.Set("s", term)
	if m.apiKey != "" {
		q.Set("apikey", m.apiKey)
	}
	u.RawQuery = q.Encode()

	resp, err := m.client.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("movie suggestion request failed, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("movie API returned status %d", resp.StatusCode)
	}

	var res struct {
		Search []struct {
			Title string `json:"Title"`
		} `json:"Search"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode movie API response, %w", err)
	}

	titles := make([]string, 0, len(res.Search))
	for _, s := range res.Search {
		titles = append(titles, s.Title)
	}

	return titles, nil
}
