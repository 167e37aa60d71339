package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const maxSpoilerLen = 1200

var ErrNoSpoilerFound = errors.New("no spoiler material found for this movie")

// SpoilerGenerator builds spoiler text from the movie's Wikipedia page
// extract.
type SpoilerGenerator struct {
	apiURL string
	client *http.Client
}

func NewSpoilerGenerator() *SpoilerGenerator {
	return &SpoilerGenerator{
		apiURL: viper.GetString("spoilers.wikipedia_url"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Generate fetches the plain-text extract for the movie and trims it down to
// a spoiler-sized blurb.
func (g *SpoilerGenerator) Generate(movie string) (string, error) {
	u, err := url.Parse(g.apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid wikipedia API url, %w", err)
	}

	q := u.Query()
	q.Set("action", "query")
	q.Set("prop", "extracts")
	q.Set("explaintext", "1")
	q.Set("redirects", "1")
	q.Set("format", "json")
	q.Set("titles", movie)
	u.RawQuery = q.Encode()

	resp, err := g.client.Get(u.String())
	if err != nil {
		return "", fmt.Errorf("wikipedia request failed, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}

	var res struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("failed to decode wikipedia response, %w", err)
	}

	var extract string
	for _, p := range res.Query.Pages {
		if p.Extract != "" {
			extract = p.Extract
			break
		}
	}

	if extract == "" {
		return "", ErrNoSpoilerFound
	}

	return trimSpoiler(extract), nil
}

// Wikipedia extracts run to several thousand words. Cut at a sentence
// boundary so the draft doesn't end mid-thought.
func trimSpoiler(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxSpoilerLen {
		return s
	}

	cut := s[:maxSpoilerLen]
	if i := strings.LastIndex(cut, ". "); i > 0 {
		return cut[:i+1]
	}

	return cut
}
