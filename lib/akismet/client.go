package akismet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

//go:generate moq --out mocks/http_client.go --pkg mocks --skip-ensure --with-resets . HTTPClient

// Client is a client for the Akismet API. It is safe for concurrent use if HTTPClient is.
type Client struct {
	Config
}

// Config is a set of parameters for Client.
type Config struct {
	APIKey     string     // akismet api key
	WebsiteURL string     // default website url, used if Params has no website url
	HTTPClient HTTPClient // http client to use for requests
}

// HTTPClient is an interface for http client, satisfied by http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// New makes a new Client with the given config
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{Config: cfg}
}

// VerifyKey checks if the api key is valid for the website. Empty apiKey or websiteURL are
// replaced by the configured ones. Any response other than "valid" means the key is not valid.
func (c *Client) VerifyKey(ctx context.Context, apiKey, websiteURL string) (bool, error) {
	if apiKey == "" {
		apiKey = c.APIKey
	}
	if websiteURL == "" {
		websiteURL = c.WebsiteURL
	}
	form := url.Values{"key": {apiKey}, "blog": {websiteURL}}
	_, _, body, err := c.post(ctx, VerifyKeyURL, apiKey, form)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(body, "valid"), nil
}

// Check sends the comment to classification and returns the verdict
func (c *Client) Check(ctx context.Context, params Params) (Result, error) {
	params, form, err := c.prepare(params)
	if err != nil {
		return Result{}, err
	}
	req, resp, body, err := c.post(ctx, c.actionURL(actionCheck), c.APIKey, form)
	if err != nil {
		return Result{}, err
	}

	switch strings.ToLower(body) {
	case "true":
		return NewResult(params, true), nil
	case "false":
		return NewResult(params, false), nil
	default:
		return Result{}, newAPIError(req, resp, body)
	}
}

// SubmitSpam reports the comment as spam missed by the check
func (c *Client) SubmitSpam(ctx context.Context, params Params) error {
	return c.submit(ctx, params, actionSubmitSpam)
}

// SubmitHam reports the comment as ham incorrectly classified as spam
func (c *Client) SubmitHam(ctx context.Context, params Params) error {
	return c.submit(ctx, params, actionSubmitHam)
}

func (c *Client) submit(ctx context.Context, params Params, action string) error {
	_, form, err := c.prepare(params)
	if err != nil {
		return err
	}
	req, resp, body, err := c.post(ctx, c.actionURL(action), c.APIKey, form)
	if err != nil {
		return err
	}
	if !strings.EqualFold(body, submitThanks) {
		return newAPIError(req, resp, body)
	}
	return nil
}

// prepare sets the default website url if params have none and makes form values from the parameter list
func (c *Client) prepare(params Params) (Params, url.Values, error) {
	if params.WebsiteURL() == "" {
		p, err := params.WithWebsiteURL(c.WebsiteURL)
		if err != nil {
			return params, nil, err
		}
		params = p
	}

	list, err := params.ParameterList()
	if err != nil {
		return params, nil, err
	}
	form := make(url.Values, len(list))
	for k, v := range list {
		form.Set(k, v)
	}
	return params, form, nil
}

// post sends form-encoded request and returns the request, response and its body.
// Response body is read and closed here. apiKey is masked in returned errors.
func (c *Client) post(ctx context.Context, endpoint, apiKey string, form url.Values) (*http.Request, *http.Response, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, "", fmt.Errorf("can't make request: %s", maskKey(err.Error(), apiKey))
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return req, nil, "", &HTTPError{Request: req, Err: err, apiKey: apiKey}
	}
	if resp.Body == nil {
		return req, resp, "", nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return req, resp, "", &HTTPError{Request: req, Err: fmt.Errorf("can't read response: %w", err), apiKey: apiKey}
	}
	return req, resp, string(body), nil
}

func (c *Client) actionURL(action string) string {
	return fmt.Sprintf(apiURLTemplate, c.APIKey, action)
}
