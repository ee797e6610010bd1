// Package checker wraps akismet client with the things the library leaves to callers: retries of transport
// failures, cached key verification, persistence of results, JSON log of results and metrics.
package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/go-pkgz/repeater"

	"github.com/umputun/akismet/app/storage"
	"github.com/umputun/akismet/lib/akismet"
)

//go:generate moq --out mocks/akismet_client.go --pkg mocks --skip-ensure --with-resets . AkismetClient
//go:generate moq --out mocks/results_store.go --pkg mocks --skip-ensure --with-resets . ResultsStore

// AkismetClient is a subset of akismet.Client used by Checker
type AkismetClient interface {
	VerifyKey(ctx context.Context, apiKey, websiteURL string) (bool, error)
	Check(ctx context.Context, params akismet.Params) (akismet.Result, error)
	SubmitSpam(ctx context.Context, params akismet.Params) error
	SubmitHam(ctx context.Context, params akismet.Params) error
}

// ResultsStore saves results of checks and submissions
type ResultsStore interface {
	Add(ctx context.Context, rec storage.Record) (string, error)
}

// Checker sends requests to akismet and keeps track of results. Safe for concurrent use.
type Checker struct {
	Config
	verified cache.Cache[string, bool]
	logLock  sync.Mutex
}

// Config defines checker dependencies and retry parameters
type Config struct {
	Client     AkismetClient // required
	Store      ResultsStore  // optional, results are not stored if nil
	ResultsLog io.Writer     // optional, json line per result
	Metrics    *Metrics      // optional
	Attempts   int           // total attempts on transport failures, at least one is made
	RetryDelay time.Duration // delay between attempts
	VerifyTTL  time.Duration // ttl of key verification cache, 0 disables caching
}

// Verdict is a result of the check with the id of the stored record
type Verdict struct {
	ID     string         `json:"id,omitempty"`
	Spam   bool           `json:"spam"`
	Result akismet.Result `json:"result"`
}

// logEntry is a line of results log
type logEntry struct {
	ID     string            `json:"id,omitempty"`
	Kind   storage.Kind      `json:"kind"`
	Spam   bool              `json:"spam"`
	Time   time.Time         `json:"time"`
	Params map[string]string `json:"params"`
}

const maxVerifyCacheKeys = 100

// New makes Checker
func New(cfg Config) *Checker {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	res := &Checker{Config: cfg}
	if cfg.VerifyTTL > 0 {
		res.verified = cache.NewCache[string, bool]().WithMaxKeys(maxVerifyCacheKeys).WithTTL(cfg.VerifyTTL)
	}
	return res
}

// Verify checks the api key, empty apiKey and websiteURL mean configured in the client.
// Successful responses are cached for VerifyTTL, errors are not cached.
func (c *Checker) Verify(ctx context.Context, apiKey, websiteURL string) (bool, error) {
	key := apiKey + "|" + websiteURL
	if c.verified != nil {
		if ok, found := c.verified.Get(key); found {
			c.Metrics.cacheHit()
			return ok, nil
		}
	}

	st := time.Now()
	var valid bool
	err := c.retry(ctx, "verify", func() (err error) {
		valid, err = c.Client.VerifyKey(ctx, apiKey, websiteURL)
		return err
	})
	c.Metrics.observe("verify", outcome(err, ""), time.Since(st))
	if err != nil {
		return false, fmt.Errorf("can't verify key: %w", err)
	}

	if c.verified != nil {
		c.verified.Set(key, valid, c.VerifyTTL)
	}
	if !valid {
		log.Printf("[WARN] akismet key is not valid for %q", websiteURL)
	}
	return valid, nil
}

// Check classifies the comment. The verdict is stored and logged, storage failures are logged
// but not returned, in this case Verdict.ID is empty.
func (c *Checker) Check(ctx context.Context, params akismet.Params) (Verdict, error) {
	st := time.Now()
	var res akismet.Result
	err := c.retry(ctx, "check", func() (err error) {
		res, err = c.Client.Check(ctx, params)
		return err
	})
	if err != nil {
		c.Metrics.observe("check", outcome(err, ""), time.Since(st))
		return Verdict{}, fmt.Errorf("can't check comment: %w", err)
	}
	c.Metrics.observe("check", outcome(nil, spamOrHam(res.IsSpam())), time.Since(st))

	id := c.save(ctx, storage.KindCheck, res.IsSpam(), res.Params())
	log.Printf("[INFO] checked %s, id:%s", res, id)
	return Verdict{ID: id, Spam: res.IsSpam(), Result: res}, nil
}

// SubmitSpam reports missed spam, returns the id of the stored record
func (c *Checker) SubmitSpam(ctx context.Context, params akismet.Params) (string, error) {
	return c.submit(ctx, storage.KindSpam, params, c.Client.SubmitSpam)
}

// SubmitHam reports a false positive, returns the id of the stored record
func (c *Checker) SubmitHam(ctx context.Context, params akismet.Params) (string, error) {
	return c.submit(ctx, storage.KindHam, params, c.Client.SubmitHam)
}

func (c *Checker) submit(ctx context.Context, kind storage.Kind, params akismet.Params,
	fn func(context.Context, akismet.Params) error) (string, error) {
	op := "submit-" + string(kind)
	st := time.Now()
	err := c.retry(ctx, op, func() error { return fn(ctx, params) })
	c.Metrics.observe(op, outcome(err, ""), time.Since(st))
	if err != nil {
		return "", fmt.Errorf("can't submit %s: %w", kind, err)
	}

	id := c.save(ctx, kind, kind == storage.KindSpam, params)
	log.Printf("[INFO] submitted %s, id:%s", kind, id)
	return id, nil
}

// retry calls fn up to Attempts times while it fails with transport error. Other errors are returned at once.
func (c *Checker) retry(ctx context.Context, op string, fn func() error) error {
	var final error // non-retryable error, stops the repeater
	attempt := 0
	err := repeater.NewDefault(c.Attempts, c.RetryDelay).Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			c.Metrics.retried(op)
		}
		err := fn()
		if err != nil && !errors.Is(err, akismet.ErrTransport) {
			final = err
			return nil
		}
		if err != nil {
			log.Printf("[DEBUG] %s attempt %d failed: %v", op, attempt, err)
		}
		return err
	})
	if final != nil {
		return final
	}
	return err
}

// save stores the record and writes it to the results log, returns the id or empty string
func (c *Checker) save(ctx context.Context, kind storage.Kind, spam bool, params akismet.Params) string {
	rec := storage.Record{Kind: kind, Spam: spam, Params: params, CreatedAt: time.Now()}
	if c.Store != nil {
		id, err := c.Store.Add(ctx, rec)
		if err != nil {
			log.Printf("[WARN] can't store %s result: %v", kind, err)
		}
		rec.ID = id
	}
	c.writeLog(rec)
	return rec.ID
}

func (c *Checker) writeLog(rec storage.Record) {
	if c.ResultsLog == nil {
		return
	}
	line, err := json.Marshal(logEntry{ID: rec.ID, Kind: rec.Kind, Spam: rec.Spam, Time: rec.CreatedAt,
		Params: rec.Params.Values()})
	if err != nil {
		log.Printf("[WARN] can't marshal results log entry: %v", err)
		return
	}
	c.logLock.Lock()
	defer c.logLock.Unlock()
	if _, err := c.ResultsLog.Write(append(line, '\n')); err != nil {
		log.Printf("[WARN] can't write results log: %v", err)
	}
}

func spamOrHam(spam bool) string {
	if spam {
		return "spam"
	}
	return "ham"
}

// outcome makes metric label for the operation result
func outcome(err error, verdict string) string {
	switch {
	case err == nil && verdict != "":
		return verdict
	case err == nil:
		return "ok"
	case errors.Is(err, akismet.ErrInvalidParams):
		return "invalid"
	case errors.Is(err, akismet.ErrTransport):
		return "transport"
	case errors.Is(err, akismet.ErrAPI):
		return "api"
	default:
		return "error"
	}
}
