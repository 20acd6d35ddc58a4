package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxResponseBytes = 1 << 20

// Endpoints are the base URLs of the content APIs. Tests point them at
// local servers.
type Endpoints struct {
	Fact       string
	Joke       string
	Advice     string
	Weather    string
	Crypto     string
	Translate  string
	GIF        string
	Completion string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Fact:       "https://api.chucknorris.io",
		Joke:       "https://icanhazdadjoke.com",
		Advice:     "https://api.adviceslip.com",
		Weather:    "https://wttr.in",
		Crypto:     "https://api.binance.com",
		Translate:  "https://api.mymemory.translated.net",
		GIF:        "https://api.giphy.com",
		Completion: "https://api-inference.huggingface.co",
	}
}

type Options struct {
	Endpoints   Endpoints
	Timeout     time.Duration
	RPS         float64
	GiphyAPIKey string
	HFAPIToken  string
	HFModel     string
}

// Client calls the public APIs behind the bot commands. Each method makes
// exactly one request.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
	limiter    *rate.Limiter
	giphyKey   string
	hfToken    string
	hfModel    string
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
		burst = int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
	}
	model := opts.HFModel
	if model == "" {
		model = "gpt2"
	}

	return &Client{
		endpoints:  opts.Endpoints,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		giphyKey:   opts.GiphyAPIKey,
		hfToken:    opts.HFAPIToken,
		hfModel:    model,
	}
}

func (c *Client) RandomFact(ctx context.Context) (string, error) {
	var body struct {
		Value string `json:"value"`
	}
	if err := c.getJSON(ctx, c.endpoints.Fact+"/jokes/random", nil, &body); err != nil {
		return "", err
	}
	return nonEmpty("fact", body.Value)
}

func (c *Client) RandomJoke(ctx context.Context) (string, error) {
	var body struct {
		Joke string `json:"joke"`
	}
	if err := c.getJSON(ctx, c.endpoints.Joke+"/", nil, &body); err != nil {
		return "", err
	}
	return nonEmpty("joke", body.Joke)
}

func (c *Client) RandomAdvice(ctx context.Context) (string, error) {
	var body struct {
		Slip struct {
			Advice string `json:"advice"`
		} `json:"slip"`
	}
	if err := c.getJSON(ctx, c.endpoints.Advice+"/advice", nil, &body); err != nil {
		return "", err
	}
	return nonEmpty("advice", body.Slip.Advice)
}

// Weather returns wttr.in's one-line summary for city.
func (c *Client) Weather(ctx context.Context, city string) (string, error) {
	endpoint := c.endpoints.Weather + "/" + url.PathEscape(city) + "?format=3"
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, map[string]string{"Accept": "text/plain"})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("weather: read body: %w", err)
	}
	return nonEmpty("weather", string(raw))
}

// CryptoPrice returns the USDT price of symbol.
func (c *Client) CryptoPrice(ctx context.Context, symbol string) (float64, error) {
	pair := strings.ToUpper(strings.TrimSpace(symbol))
	if pair == "" {
		return 0, fmt.Errorf("crypto: empty symbol")
	}
	if !strings.HasSuffix(pair, "USDT") {
		pair += "USDT"
	}

	var body struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	endpoint := c.endpoints.Crypto + "/api/v3/ticker/price?symbol=" + url.QueryEscape(pair)
	if err := c.getJSON(ctx, endpoint, nil, &body); err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(body.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("crypto: bad price %q: %w", body.Price, err)
	}
	return price, nil
}

// Translate translates English text into targetLang.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", "en|"+targetLang)

	var body struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus int `json:"responseStatus"`
	}
	if err := c.getJSON(ctx, c.endpoints.Translate+"/get?"+q.Encode(), nil, &body); err != nil {
		return "", err
	}
	if body.ResponseStatus != 0 && body.ResponseStatus != http.StatusOK {
		return "", fmt.Errorf("translate: status %d", body.ResponseStatus)
	}
	return nonEmpty("translate", body.ResponseData.TranslatedText)
}

func (c *Client) SearchGIFs(ctx context.Context, query string, limit int) ([]string, error) {
	if c.giphyKey == "" {
		return nil, fmt.Errorf("gif: no API key configured")
	}
	if limit <= 0 {
		limit = 12
	}

	q := url.Values{}
	q.Set("api_key", c.giphyKey)
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var body struct {
		Data []struct {
			Images struct {
				Original struct {
					URL string `json:"url"`
				} `json:"original"`
			} `json:"images"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.endpoints.GIF+"/v1/gifs/search?"+q.Encode(), nil, &body); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(body.Data))
	for _, d := range body.Data {
		if d.Images.Original.URL != "" {
			urls = append(urls, d.Images.Original.URL)
		}
	}
	return urls, nil
}

type completionRequest struct {
	Inputs     string               `json:"inputs"`
	Parameters completionParameters `json:"parameters"`
}

type completionParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens"`
	ReturnFullText bool `json:"return_full_text"`
}

type completionResult struct {
	GeneratedText *string `json:"generated_text"`
}

// Complete asks the inference API for a continuation of prompt. The response
// must be a non-empty array whose first element has generated_text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Inputs:     prompt,
		Parameters: completionParameters{MaxNewTokens: 60, ReturnFullText: false},
	})
	if err != nil {
		return "", err
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if c.hfToken != "" {
		headers["Authorization"] = "Bearer " + c.hfToken
	}

	endpoint := c.endpoints.Completion + "/models/" + c.hfModel
	resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(payload), headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var results []completionResult
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(&results); err != nil {
		return "", fmt.Errorf("completion: unexpected response: %w", err)
	}
	if len(results) == 0 || results[0].GeneratedText == nil {
		return "", fmt.Errorf("completion: response has no generated_text")
	}

	text := strings.TrimSpace(strings.TrimPrefix(*results[0].GeneratedText, prompt))
	return nonEmpty("completion", text)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, headers map[string]string, out interface{}) error {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["Accept"]; !ok {
		headers["Accept"] = "application/json"
	}

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", redact(endpoint), err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "groupchat-bot/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		return nil, fmt.Errorf("%s %s: %w", method, redact(endpoint), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, redact(endpoint), resp.StatusCode)
	}
	return resp, nil
}

func nonEmpty(api, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: empty response", api)
	}
	return text, nil
}

// redact drops the query string so API keys stay out of logs.
func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
