package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/akismet/app/checker/mocks"
	"github.com/umputun/akismet/app/storage"
	"github.com/umputun/akismet/lib/akismet"
)

func testParams(t *testing.T) akismet.Params {
	t.Helper()
	p, err := akismet.NewParams(map[string]string{
		akismet.FieldUserIP:         "10.0.0.1",
		akismet.FieldBlog:           "https://example.com",
		akismet.FieldCommentContent: "hello",
		akismet.FieldCommentType:    "comment",
	})
	require.NoError(t, err)
	return p
}

func transportErr() error { return &akismet.HTTPError{Err: errors.New("connection reset")} }

func TestChecker_Check(t *testing.T) {
	t.Run("spam stored and logged", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			CheckFunc: func(ctx context.Context, params akismet.Params) (akismet.Result, error) {
				return akismet.NewResult(params, true), nil
			},
		}
		store := &mocks.ResultsStoreMock{
			AddFunc: func(ctx context.Context, rec storage.Record) (string, error) { return "id-1", nil },
		}
		buf := &bytes.Buffer{}
		m := NewMetrics()
		c := New(Config{Client: client, Store: store, ResultsLog: buf, Metrics: m, Attempts: 3})

		v, err := c.Check(context.Background(), testParams(t))
		require.NoError(t, err)
		assert.Equal(t, "id-1", v.ID)
		assert.True(t, v.Spam)
		assert.True(t, v.Result.IsSpam())

		require.Len(t, store.AddCalls(), 1)
		rec := store.AddCalls()[0].Rec
		assert.Equal(t, storage.KindCheck, rec.Kind)
		assert.True(t, rec.Spam)
		assert.Equal(t, testParams(t).Values(), rec.Params.Values())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "id-1", entry["id"])
		assert.Equal(t, "check", entry["kind"])
		assert.Equal(t, true, entry["spam"])
		assert.True(t, strings.HasSuffix(buf.String(), "\n"))

		assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("check", "spam")), 0.001)
	})

	t.Run("retries transport errors", func(t *testing.T) {
		calls := 0
		client := &mocks.AkismetClientMock{
			CheckFunc: func(ctx context.Context, params akismet.Params) (akismet.Result, error) {
				calls++
				if calls < 3 {
					return akismet.Result{}, transportErr()
				}
				return akismet.NewResult(params, false), nil
			},
		}
		m := NewMetrics()
		c := New(Config{Client: client, Attempts: 3, RetryDelay: time.Millisecond, Metrics: m})
		v, err := c.Check(context.Background(), testParams(t))
		require.NoError(t, err)
		assert.False(t, v.Spam)
		assert.Empty(t, v.ID, "no store, no id")
		assert.Len(t, client.CheckCalls(), 3)
		assert.InDelta(t, 2, testutil.ToFloat64(m.retries.WithLabelValues("check")), 0.001)
		assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("check", "ham")), 0.001)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			CheckFunc: func(ctx context.Context, params akismet.Params) (akismet.Result, error) {
				return akismet.Result{}, transportErr()
			},
		}
		m := NewMetrics()
		c := New(Config{Client: client, Attempts: 3, RetryDelay: time.Millisecond, Metrics: m})
		_, err := c.Check(context.Background(), testParams(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, akismet.ErrTransport)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Len(t, client.CheckCalls(), 3)
		assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("check", "transport")), 0.001)
	})

	t.Run("api error not retried", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			CheckFunc: func(ctx context.Context, params akismet.Params) (akismet.Result, error) {
				return akismet.Result{}, &akismet.APIError{Message: "bad key"}
			},
		}
		store := &mocks.ResultsStoreMock{}
		c := New(Config{Client: client, Store: store, Attempts: 5, RetryDelay: time.Millisecond})
		_, err := c.Check(context.Background(), testParams(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, akismet.ErrAPI)
		assert.Len(t, client.CheckCalls(), 1)
		assert.Empty(t, store.AddCalls())
	})

	t.Run("validation error not retried", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			CheckFunc: func(ctx context.Context, params akismet.Params) (akismet.Result, error) {
				_, err := params.ParameterList()
				return akismet.Result{}, err
			},
		}
		c := New(Config{Client: client, Attempts: 5, RetryDelay: time.Millisecond})
		_, err := c.Check(context.Background(), akismet.Params{})
		require.Error(t, err)
		assert.ErrorIs(t, err, akismet.ErrInvalidParams)
		assert.Len(t, client.CheckCalls(), 1)
	})

	t.Run("store failure doesn't fail check", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			CheckFunc: func(ctx context.Context, params akismet.Params) (akismet.Result, error) {
				return akismet.NewResult(params, true), nil
			},
		}
		store := &mocks.ResultsStoreMock{
			AddFunc: func(ctx context.Context, rec storage.Record) (string, error) { return "", errors.New("db is down") },
		}
		buf := &bytes.Buffer{}
		c := New(Config{Client: client, Store: store, ResultsLog: buf})
		v, err := c.Check(context.Background(), testParams(t))
		require.NoError(t, err)
		assert.Empty(t, v.ID)
		assert.True(t, v.Spam)
		assert.Contains(t, buf.String(), `"kind":"check"`)
	})
}

func TestChecker_Verify(t *testing.T) {
	t.Run("cached", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			VerifyKeyFunc: func(ctx context.Context, apiKey, websiteURL string) (bool, error) {
				return apiKey != "bad", nil
			},
		}
		m := NewMetrics()
		c := New(Config{Client: client, VerifyTTL: time.Minute, Metrics: m})

		for range 3 {
			ok, err := c.Verify(context.Background(), "", "")
			require.NoError(t, err)
			assert.True(t, ok)
		}
		assert.Len(t, client.VerifyKeyCalls(), 1)
		assert.InDelta(t, 2, testutil.ToFloat64(m.cacheHits), 0.001)

		ok, err := c.Verify(context.Background(), "bad", "https://example.com")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = c.Verify(context.Background(), "bad", "https://example.com")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, client.VerifyKeyCalls(), 2, "invalid result cached too")
		assert.Equal(t, "bad", client.VerifyKeyCalls()[1].APIKey)
		assert.Equal(t, "https://example.com", client.VerifyKeyCalls()[1].WebsiteURL)
	})

	t.Run("errors not cached", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			VerifyKeyFunc: func(ctx context.Context, apiKey, websiteURL string) (bool, error) {
				return false, transportErr()
			},
		}
		c := New(Config{Client: client, VerifyTTL: time.Minute, Attempts: 2, RetryDelay: time.Millisecond})
		_, err := c.Verify(context.Background(), "", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, akismet.ErrTransport)
		_, err = c.Verify(context.Background(), "", "")
		require.Error(t, err)
		assert.Len(t, client.VerifyKeyCalls(), 4)
	})

	t.Run("no cache", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			VerifyKeyFunc: func(ctx context.Context, apiKey, websiteURL string) (bool, error) { return true, nil },
		}
		c := New(Config{Client: client})
		for range 2 {
			ok, err := c.Verify(context.Background(), "", "")
			require.NoError(t, err)
			assert.True(t, ok)
		}
		assert.Len(t, client.VerifyKeyCalls(), 2)
	})
}

func TestChecker_Submit(t *testing.T) {
	client := &mocks.AkismetClientMock{
		SubmitSpamFunc: func(ctx context.Context, params akismet.Params) error { return nil },
		SubmitHamFunc:  func(ctx context.Context, params akismet.Params) error { return nil },
	}
	store := &mocks.ResultsStoreMock{
		AddFunc: func(ctx context.Context, rec storage.Record) (string, error) { return "id-" + string(rec.Kind), nil },
	}
	buf := &bytes.Buffer{}
	m := NewMetrics()
	c := New(Config{Client: client, Store: store, ResultsLog: buf, Metrics: m})

	id, err := c.SubmitSpam(context.Background(), testParams(t))
	require.NoError(t, err)
	assert.Equal(t, "id-spam", id)
	id, err = c.SubmitHam(context.Background(), testParams(t))
	require.NoError(t, err)
	assert.Equal(t, "id-ham", id)

	assert.Len(t, client.SubmitSpamCalls(), 1)
	assert.Len(t, client.SubmitHamCalls(), 1)
	require.Len(t, store.AddCalls(), 2)
	assert.Equal(t, storage.KindSpam, store.AddCalls()[0].Rec.Kind)
	assert.True(t, store.AddCalls()[0].Rec.Spam)
	assert.Equal(t, storage.KindHam, store.AddCalls()[1].Rec.Kind)
	assert.False(t, store.AddCalls()[1].Rec.Spam)
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("submit-spam", "ok")), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues("submit-ham", "ok")), 0.001)

	t.Run("failure", func(t *testing.T) {
		client := &mocks.AkismetClientMock{
			SubmitSpamFunc: func(ctx context.Context, params akismet.Params) error {
				return &akismet.APIError{Message: "nope"}
			},
		}
		store := &mocks.ResultsStoreMock{}
		c := New(Config{Client: client, Store: store, Attempts: 3})
		_, err := c.SubmitSpam(context.Background(), testParams(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't submit spam")
		assert.ErrorIs(t, err, akismet.ErrAPI)
		assert.Len(t, client.SubmitSpamCalls(), 1)
		assert.Empty(t, store.AddCalls())
	})
}

func TestOutcome(t *testing.T) {
	tbl := []struct {
		err     error
		verdict string
		want    string
	}{
		{nil, "", "ok"},
		{nil, "spam", "spam"},
		{&akismet.ValidationError{Message: "x"}, "", "invalid"},
		{transportErr(), "", "transport"},
		{&akismet.APIError{}, "", "api"},
		{errors.New("other"), "", "error"},
	}
	for _, tt := range tbl {
		assert.Equal(t, tt.want, outcome(tt.err, tt.verdict))
	}
}
