// Package translation provides the machine-translation backend used to
// resolve dialogue fragments.
package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultBaseURL = "https://translation.googleapis.com/language/translate/v2"

const maxAttempts = 3

// Translator is the external translate capability plus the backend's
// supported-language listing, used to validate configuration up front.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
	Languages(ctx context.Context) ([]string, error)
}

// GoogleClient calls the Google Cloud Translation v2 REST API.
type GoogleClient struct {
	apiKey     string
	baseURL    string
	retryDelay time.Duration
	httpClient *http.Client
}

// NewGoogleClient creates a translation client. An empty baseURL selects
// the public API endpoint.
func NewGoogleClient(apiKey, baseURL string) *GoogleClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &GoogleClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		retryDelay: 2 * time.Second,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// --- Translation API request/response types ---

type translateRequest struct {
	Q      []string `json:"q"`
	Target string   `json:"target"`
	Format string   `json:"format"`
}

type apiResponse struct {
	Data  *apiData  `json:"data"`
	Error *apiError `json:"error"`
}

type apiData struct {
	Translations []struct {
		TranslatedText string `json:"translatedText"`
	} `json:"translations"`
	Languages []struct {
		Language string `json:"language"`
	} `json:"languages"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Translate sends one text fragment to the backend and returns the
// translated text. Retryable failures (rate limits, server errors, network
// errors) are retried a bounded number of times with exponential backoff;
// after that the error propagates and fails the run.
func (c *GoogleClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	body, err := json.Marshal(translateRequest{
		Q:      []string{text},
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.retryDelay * time.Duration(1<<(attempt-1))
			log.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Retrying translation")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, retryable, err := c.doTranslate(ctx, body)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("translate failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *GoogleClient) doTranslate(ctx context.Context, body []byte) (string, bool, error) {
	url := fmt.Sprintf("%s?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	parsed, retryable, err := c.doRequest(req)
	if err != nil {
		return "", retryable, err
	}
	if parsed.Data == nil || len(parsed.Data.Translations) == 0 {
		return "", false, fmt.Errorf("translate response contains no translations")
	}
	return parsed.Data.Translations[0].TranslatedText, false, nil
}

// Languages returns the backend's supported target language codes.
func (c *GoogleClient) Languages(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/languages?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build languages request: %w", err)
	}

	parsed, _, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	if parsed.Data == nil {
		return nil, fmt.Errorf("languages response contains no data")
	}

	codes := make([]string, 0, len(parsed.Data.Languages))
	for _, l := range parsed.Data.Languages {
		codes = append(codes, l.Language)
	}
	return codes, nil
}

// doRequest executes an API call and decodes the shared response envelope.
// The second return value reports whether a failure is worth retrying.
func (c *GoogleClient) doRequest(req *http.Request) (*apiResponse, bool, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("translation API request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read translation API response: %w", err)
	}

	retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500

	// Proxies and load balancers can answer 429/5xx with non-JSON bodies;
	// those failures are still transient.
	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, retryable, fmt.Errorf("decode translation API response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, retryable, fmt.Errorf("translation API error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return nil, retryable, fmt.Errorf("translation API returned status %d", resp.StatusCode)
	}

	return &parsed, false, nil
}

var _ Translator = (*GoogleClient)(nil)
