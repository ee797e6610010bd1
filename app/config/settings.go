// Package config defines application settings independent of their source (CLI, env or database)
// and assembles akismet client from them.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/umputun/akismet/lib/akismet"
)

// Settings represents application configuration independent of source (CLI, DB, etc)
type Settings struct {
	InstanceID string `json:"instance_id"`

	Akismet AkismetSettings `json:"akismet"`
	Retry   RetrySettings   `json:"retry"`
	Logger  LoggerSettings  `json:"logger"`
	Server  ServerSettings  `json:"server"`

	VerifyTTL       time.Duration `json:"verify_ttl"`        // how long key verification results are cached
	ResultsMaxAge   time.Duration `json:"results_max_age"`   // stored results older than this are removed, 0 keeps all
	ResultsListSize int           `json:"results_list_size"` // default size of results list

	// transient fields that should never be stored
	Transient TransientSettings `json:"-"`
}

// AkismetSettings contains akismet api settings
type AkismetSettings struct {
	APIKey     string        `json:"api_key"`
	WebsiteURL string        `json:"website_url"`
	Timeout    time.Duration `json:"timeout"`
	Proxy      string        `json:"proxy"`
}

// RetrySettings controls retries of transport failures
type RetrySettings struct {
	Count int           `json:"count"`
	Delay time.Duration `json:"delay"`
}

// LoggerSettings contains settings of the results log
type LoggerSettings struct {
	Enabled    bool   `json:"enabled"`
	FileName   string `json:"file_name"`
	MaxSize    string `json:"max_size"`
	MaxBackups int    `json:"max_backups"`
}

// ServerSettings contains web server settings
type ServerSettings struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listen_addr"`
	AuthPasswd string `json:"auth_passwd"`
}

// TransientSettings contains settings that should never be persisted
type TransientSettings struct {
	DataBaseURL        string
	ConfigDB           bool
	ConfigDBEncryptKey string
	Dbg                bool
}

// AssemblyError is returned when the client can't be assembled from settings
type AssemblyError struct {
	Msg string
	Err error
}

func (e *AssemblyError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// New creates a new settings instance with defaults
func New() *Settings {
	return &Settings{
		Akismet:         AkismetSettings{Timeout: 30 * time.Second},
		Retry:           RetrySettings{Count: 3, Delay: 500 * time.Millisecond},
		VerifyTTL:       time.Hour,
		ResultsListSize: 100,
	}
}

// Validate checks settings and returns all found problems at once
func (s *Settings) Validate() error {
	errs := s.validateClient()
	if s.Akismet.Timeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("negative akismet timeout %v", s.Akismet.Timeout))
	}
	if s.Retry.Count < 0 {
		errs = multierror.Append(errs, fmt.Errorf("negative retry count %d", s.Retry.Count))
	}
	if s.Retry.Delay < 0 {
		errs = multierror.Append(errs, fmt.Errorf("negative retry delay %v", s.Retry.Delay))
	}
	if s.Logger.Enabled && s.Logger.FileName == "" {
		errs = multierror.Append(errs, errors.New("results log enabled without file name"))
	}
	if s.Server.Enabled && s.Server.ListenAddr == "" {
		errs = multierror.Append(errs, errors.New("server enabled without listen address"))
	}
	if s.ResultsListSize < 0 {
		errs = multierror.Append(errs, fmt.Errorf("negative results list size %d", s.ResultsListSize))
	}
	return errs.ErrorOrNil()
}

// MakeClient assembles akismet client from settings. Returns AssemblyError if the key or website are
// missing or invalid, or the http client can't be made.
func MakeClient(s *Settings) (*akismet.Client, error) {
	if s == nil {
		return nil, &AssemblyError{Msg: "akismet client assembly failed", Err: errors.New("no settings")}
	}
	if errs := s.validateClient(); errs.ErrorOrNil() != nil {
		return nil, &AssemblyError{Msg: "akismet client assembly failed", Err: errs}
	}

	httpClient, err := makeHTTPClient(s.Akismet.Timeout, s.Akismet.Proxy)
	if err != nil {
		return nil, &AssemblyError{Msg: "http client construction failed", Err: err}
	}
	return akismet.New(akismet.Config{
		APIKey:     s.Akismet.APIKey,
		WebsiteURL: s.Akismet.WebsiteURL,
		HTTPClient: httpClient,
	}), nil
}

func (s *Settings) validateClient() *multierror.Error {
	var errs *multierror.Error
	if s.Akismet.APIKey == "" {
		errs = multierror.Append(errs, errors.New("akismet api key is not set"))
	}
	if s.Akismet.WebsiteURL == "" {
		errs = multierror.Append(errs, errors.New("website url is not set"))
	} else if u, err := url.Parse(s.Akismet.WebsiteURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = multierror.Append(errs, fmt.Errorf("website url %q is not a valid absolute url", s.Akismet.WebsiteURL))
	}
	return errs
}

func makeHTTPClient(timeout time.Duration, proxy string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", proxy)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}
