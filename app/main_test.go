package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/akismet/app/config"
	"github.com/umputun/akismet/app/storage"
	"github.com/umputun/akismet/app/storage/engine"
	"github.com/umputun/akismet/lib/akismet"
	"github.com/umputun/akismet/lib/akismet/mocks"
)

// respondWith makes akismet client with mocked transport returning body for every request
func respondWith(body string) (*akismet.Client, *mocks.HTTPClientMock) {
	mock := &mocks.HTTPClientMock{DoFunc: func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{},
			Body: io.NopCloser(strings.NewReader(body))}, nil
	}}
	return akismet.New(akismet.Config{APIKey: "test-key", WebsiteURL: "https://example.com", HTTPClient: mock}), mock
}

func testOptions() options {
	var opts options
	opts.Akismet.Key = "test-key"
	opts.Akismet.Website = "https://example.com"
	opts.Akismet.Timeout = 5 * time.Second
	opts.Retry.Count = 2
	opts.Retry.Delay = time.Millisecond
	opts.DB.GID = "test"
	opts.Logger.FileName = "akismet.log"
	opts.Logger.MaxSize = "1M"
	opts.Server.Listen = ":8080"
	opts.VerifyTTL = time.Minute
	opts.ResultsListSize = 10
	comment := commentOpts{IP: "127.0.0.1", UserAgent: "test-agent", Content: "buy cheap stuff", Type: "forum-post",
		Author: "viagra-test-123", Email: "test@example.com"}
	opts.Check, opts.Spam, opts.Ham = comment, comment, comment
	return opts
}

func TestRun(t *testing.T) {
	setupLog(true, "test-key")
	ctx := context.Background()

	t.Run("verify", func(t *testing.T) {
		client, mock := respondWith("valid")
		opts := testOptions()
		out := bytes.Buffer{}
		err := run(ctx, runParams{cmd: "verify", opts: opts, settings: optToSettings(opts, "verify"),
			client: client, resultsLog: io.Discard, out: &out})
		require.NoError(t, err)
		assert.JSONEq(t, `{"valid": true}`, out.String())
		require.Len(t, mock.DoCalls(), 1)
		assert.Equal(t, akismet.VerifyKeyURL, mock.DoCalls()[0].Req.URL.String())
	})

	t.Run("check spam", func(t *testing.T) {
		client, mock := respondWith("true")
		opts := testOptions()
		out, logBuf := bytes.Buffer{}, bytes.Buffer{}
		err := run(ctx, runParams{cmd: "check", opts: opts, settings: optToSettings(opts, "check"),
			client: client, resultsLog: &logBuf, out: &out})
		require.NoError(t, err)

		var res struct {
			ID     string         `json:"id"`
			Spam   bool           `json:"spam"`
			Result akismet.Result `json:"result"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &res))
		assert.True(t, res.Spam)
		assert.Empty(t, res.ID, "no storage, no id")
		assert.Equal(t, "https://example.com", res.Result.Params().WebsiteURL())
		assert.Contains(t, logBuf.String(), `"kind":"check"`)

		require.Len(t, mock.DoCalls(), 1)
		assert.Equal(t, "https://test-key.rest.akismet.com/1.1/comment-check", mock.DoCalls()[0].Req.URL.String())
	})

	t.Run("submit with storage", func(t *testing.T) {
		db, err := engine.NewSqlite(":memory:", "test")
		require.NoError(t, err)
		defer db.Close()
		results, err := storage.NewResults(ctx, db)
		require.NoError(t, err)

		for _, cmd := range []string{"spam", "ham"} {
			client, _ := respondWith("Thanks for making the web a better place.")
			opts := testOptions()
			out := bytes.Buffer{}
			err = run(ctx, runParams{cmd: cmd, opts: opts, settings: optToSettings(opts, cmd), client: client,
				results: results, resultsLog: io.Discard, out: &out})
			require.NoError(t, err, cmd)

			var res map[string]string
			require.NoError(t, json.Unmarshal(out.Bytes(), &res))
			assert.Equal(t, "ok", res["status"])
			rec, err := results.Get(ctx, res["id"])
			require.NoError(t, err)
			assert.Equal(t, storage.Kind(cmd), rec.Kind)
			assert.Equal(t, cmd == "spam", rec.Spam)
		}
		count, err := results.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("api error", func(t *testing.T) {
		client, mock := respondWith("invalid")
		opts := testOptions()
		err := run(ctx, runParams{cmd: "check", opts: opts, settings: optToSettings(opts, "check"),
			client: client, resultsLog: io.Discard, out: io.Discard})
		require.Error(t, err)
		assert.ErrorIs(t, err, akismet.ErrAPI)
		assert.Len(t, mock.DoCalls(), 1, "api errors are not retried")
	})

	t.Run("invalid comment", func(t *testing.T) {
		client, mock := respondWith("true")
		opts := testOptions()
		opts.Check.Email = "bad email"
		err := run(ctx, runParams{cmd: "check", opts: opts, settings: optToSettings(opts, "check"),
			client: client, resultsLog: io.Discard, out: io.Discard})
		require.Error(t, err)
		assert.ErrorIs(t, err, akismet.ErrInvalidParams)
		assert.Empty(t, mock.DoCalls())
	})

	t.Run("unknown command", func(t *testing.T) {
		client, _ := respondWith("true")
		opts := testOptions()
		err := run(ctx, runParams{cmd: "blah", opts: opts, settings: optToSettings(opts, "blah"),
			client: client, resultsLog: io.Discard, out: io.Discard})
		assert.EqualError(t, err, `unknown command "blah"`)
	})
}

func TestExecute(t *testing.T) {
	setupLog(true)
	ctx := context.Background()

	t.Run("missing key and website", func(t *testing.T) {
		opts := testOptions()
		opts.Akismet.Key = ""
		opts.Akismet.Website = ""
		err := execute(ctx, opts, "verify", io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "akismet api key is not set")
		assert.Contains(t, err.Error(), "website url is not set")
	})

	t.Run("invalid proxy", func(t *testing.T) {
		opts := testOptions()
		opts.Akismet.Proxy = "::not a url"
		err := execute(ctx, opts, "verify", io.Discard)
		var aerr *config.AssemblyError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, "http client construction failed", aerr.Msg)
	})

	t.Run("bad database", func(t *testing.T) {
		opts := testOptions()
		opts.DB.Connection = "mysql://localhost/db"
		err := execute(ctx, opts, "verify", io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't open database")
	})

	t.Run("confdb without database", func(t *testing.T) {
		opts := testOptions()
		opts.ConfigDB = true
		err := execute(ctx, opts, "verify", io.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is required")
	})
}

func TestSaveAndLoadConfig(t *testing.T) {
	setupLog(true)
	ctx := context.Background()
	dbFile := filepath.Join(t.TempDir(), "config-test.db")
	const encryptKey = "some-long-master-key-for-tests"

	opts := testOptions()
	opts.DB.Connection = dbFile
	opts.ConfigDBEncryptKey = encryptKey
	opts.Akismet.Key = "secret-key"
	opts.Server.AuthPasswd = "secret-passwd"
	opts.Retry.Count = 5

	out := bytes.Buffer{}
	require.NoError(t, execute(ctx, opts, "save-config", &out))
	assert.JSONEq(t, `{"status": "ok", "gid": "test"}`, out.String())

	db, err := engine.New(ctx, dbFile, "test")
	require.NoError(t, err)
	defer db.Close()

	t.Run("sensitive fields encrypted", func(t *testing.T) {
		var raw string
		require.NoError(t, db.GetContext(ctx, &raw, "SELECT data FROM config WHERE gid = ?", "test"))
		assert.NotContains(t, raw, "secret-key")
		assert.NotContains(t, raw, "secret-passwd")
		assert.Contains(t, raw, config.EncryptPrefix)
	})

	t.Run("load with cli transient values", func(t *testing.T) {
		cli := testOptions()
		cli.DB.Connection = dbFile
		cli.ConfigDB = true
		cli.ConfigDBEncryptKey = encryptKey
		cli.Dbg = true
		cliSettings := optToSettings(cli, "server")

		store, err := makeConfigStore(ctx, db, cliSettings)
		require.NoError(t, err)
		loaded, err := loadSettings(ctx, store, cliSettings)
		require.NoError(t, err)
		assert.Equal(t, "secret-key", loaded.Akismet.APIKey)
		assert.Equal(t, "secret-passwd", loaded.Server.AuthPasswd)
		assert.Equal(t, 5, loaded.Retry.Count)
		assert.True(t, loaded.Server.Enabled)
		assert.True(t, loaded.Transient.Dbg)
		assert.Equal(t, dbFile, loaded.Transient.DataBaseURL)
	})

	t.Run("wrong encryption key", func(t *testing.T) {
		cli := testOptions()
		cli.ConfigDBEncryptKey = "another-long-master-key-for-tests"
		store, err := makeConfigStore(ctx, db, optToSettings(cli, "verify"))
		require.NoError(t, err)
		_, err = loadSettings(ctx, store, optToSettings(cli, "verify"))
		assert.Error(t, err)
	})

	t.Run("short encryption key", func(t *testing.T) {
		cli := testOptions()
		cli.ConfigDBEncryptKey = "short"
		_, err := makeConfigStore(ctx, db, optToSettings(cli, "verify"))
		assert.Error(t, err)
	})

	t.Run("secrets loaded from database masked in log", func(t *testing.T) {
		logFile, err := os.Create(filepath.Join(t.TempDir(), "stderr.log"))
		require.NoError(t, err)
		origStderr := os.Stderr
		os.Stderr = logFile
		defer func() {
			os.Stderr = origStderr
			setupLog(true)
		}()

		cli := testOptions()
		cli.DB.Connection = dbFile
		cli.ConfigDB = true
		cli.ConfigDBEncryptKey = encryptKey
		err = execute(ctx, cli, "blah", io.Discard)
		require.Error(t, err)
		log.Printf("[WARN] key %s, password %s", "secret-key", "secret-passwd")
		require.NoError(t, logFile.Close())

		data, err := os.ReadFile(logFile.Name())
		require.NoError(t, err)
		assert.Contains(t, string(data), "password")
		assert.NotContains(t, string(data), "secret-key")
		assert.NotContains(t, string(data), "secret-passwd")
	})

	t.Run("delete config", func(t *testing.T) {
		cli := testOptions()
		cli.DB.Connection = dbFile
		cli.ConfigDBEncryptKey = encryptKey
		out := bytes.Buffer{}
		require.NoError(t, execute(ctx, cli, "delete-config", &out))
		assert.JSONEq(t, `{"status": "ok", "gid": "test"}`, out.String())

		var count int
		require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM config WHERE gid = ?", "test"))
		assert.Equal(t, 0, count)

		cli.ConfigDB = true
		assert.Error(t, execute(ctx, cli, "verify", io.Discard), "nothing to load after delete")
	})
}

func TestMakeParams(t *testing.T) {
	c := commentOpts{IP: "10.0.0.1", UserAgent: "agent", Referrer: "https://example.com/ref",
		Permalink: "https://example.com/post", Content: "hello", Type: "Reply", Author: "John",
		Email: "john@example.com", AuthorURL: "https://john.example.com", Lang: "en", Charset: "UTF-8",
		Role: "administrator", RecheckReason: "edit", HoneypotName: "hidden", HoneypotValue: "bot", Test: true}

	params, err := makeParams(c, "https://example.com")
	require.NoError(t, err)
	vals := params.Values()
	assert.Equal(t, "10.0.0.1", vals[akismet.FieldUserIP])
	assert.Equal(t, "agent", vals[akismet.FieldUserAgent])
	assert.Equal(t, "https://example.com/ref", vals[akismet.FieldReferrer])
	assert.Equal(t, "https://example.com/post", vals[akismet.FieldPermalink])
	assert.Equal(t, "hello", vals[akismet.FieldCommentContent])
	assert.Equal(t, "reply", vals[akismet.FieldCommentType])
	assert.Equal(t, "John", vals[akismet.FieldCommentAuthor])
	assert.Equal(t, "john@example.com", vals[akismet.FieldCommentAuthorEmail])
	assert.Equal(t, "https://john.example.com", vals[akismet.FieldCommentAuthorURL])
	assert.Equal(t, "https://example.com", vals[akismet.FieldBlog])
	assert.Equal(t, "en", vals[akismet.FieldBlogLang])
	assert.Equal(t, "UTF-8", vals[akismet.FieldBlogCharset])
	assert.Equal(t, "administrator", vals[akismet.FieldUserRole])
	assert.Equal(t, "edit", vals[akismet.FieldRecheckReason])
	assert.Equal(t, "1", vals[akismet.FieldIsTest])
	assert.NotEmpty(t, vals[akismet.FieldCommentDateGMT])

	list, err := params.ParameterList()
	require.NoError(t, err)
	assert.Equal(t, "bot", list["hidden"])

	t.Run("no website", func(t *testing.T) {
		params, err := makeParams(commentOpts{IP: "10.0.0.1", Content: "hi", Type: "comment"}, "")
		require.NoError(t, err)
		assert.Empty(t, params.WebsiteURL())
	})

	tbl := []struct {
		name  string
		c     commentOpts
		field string
	}{
		{"bad type", commentOpts{IP: "10.0.0.1", Content: "hi", Type: "tweet"}, akismet.FieldCommentType},
		{"bad ip", commentOpts{IP: "localhost", Content: "hi", Type: "comment"}, akismet.FieldUserIP},
		{"bad email", commentOpts{IP: "10.0.0.1", Content: "hi", Type: "comment", Email: "john"}, akismet.FieldCommentAuthorEmail},
		{"bad permalink", commentOpts{IP: "10.0.0.1", Content: "hi", Type: "comment", Permalink: "post/1"}, akismet.FieldPermalink},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			_, err := makeParams(tt.c, "https://example.com")
			var verr *akismet.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestOptToSettings(t *testing.T) {
	opts := testOptions()
	opts.Akismet.Proxy = "http://proxy:3128"
	opts.DB.Connection = "akismet.db"
	opts.ResultsMaxAge = 24 * time.Hour
	opts.Server.AuthPasswd = "passwd"
	opts.Dbg = true

	s := optToSettings(opts, "server")
	assert.Equal(t, "test", s.InstanceID)
	assert.Equal(t, config.AkismetSettings{APIKey: "test-key", WebsiteURL: "https://example.com",
		Timeout: 5 * time.Second, Proxy: "http://proxy:3128"}, s.Akismet)
	assert.Equal(t, config.RetrySettings{Count: 2, Delay: time.Millisecond}, s.Retry)
	assert.Equal(t, config.ServerSettings{Enabled: true, ListenAddr: ":8080", AuthPasswd: "passwd"}, s.Server)
	assert.Equal(t, 24*time.Hour, s.ResultsMaxAge)
	assert.Equal(t, "akismet.db", s.Transient.DataBaseURL)
	assert.True(t, s.Transient.Dbg)
	assert.NoError(t, s.Validate())

	assert.False(t, optToSettings(opts, "check").Server.Enabled)

	masked := settingsForLog(s)
	assert.Equal(t, "*****", masked.Akismet.APIKey)
	assert.Equal(t, "*****", masked.Server.AuthPasswd)
	assert.Equal(t, "test-key", s.Akismet.APIKey, "original not changed")
}

func TestMakeResultsLogWriter(t *testing.T) {
	setupLog(true, "super-secret-token")
	t.Run("happy path", func(t *testing.T) {
		file, err := os.CreateTemp(os.TempDir(), "log")
		require.NoError(t, err)
		defer os.Remove(file.Name())

		s := config.New()
		s.Logger = config.LoggerSettings{Enabled: true, FileName: file.Name(), MaxSize: "1M", MaxBackups: 1}
		writer, err := makeResultsLogWriter(s)
		require.NoError(t, err)

		_, err = writer.Write([]byte("Test log entry\n"))
		assert.NoError(t, err)
		err = writer.Close()
		assert.NoError(t, err)

		content, err := os.ReadFile(file.Name())
		require.NoError(t, err)
		assert.Equal(t, "Test log entry\n", string(content))
	})

	t.Run("failed on wrong size", func(t *testing.T) {
		s := config.New()
		s.Logger = config.LoggerSettings{Enabled: true, FileName: "/tmp", MaxSize: "1f", MaxBackups: 1}
		writer, err := makeResultsLogWriter(s)
		assert.Error(t, err)
		assert.Nil(t, writer)
	})

	t.Run("disabled", func(t *testing.T) {
		s := config.New()
		s.Logger = config.LoggerSettings{Enabled: false, FileName: "/tmp", MaxSize: "10M", MaxBackups: 1}
		writer, err := makeResultsLogWriter(s)
		assert.NoError(t, err)
		assert.IsType(t, nopWriteCloser{}, writer)
	})
}

func TestSizeParse(t *testing.T) {
	tbl := []struct {
		inp     string
		res     uint64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"1k", 1024, false},
		{"1K", 1024, false},
		{"10m", 10 * 1024 * 1024, false},
		{"2G", 2 * 1024 * 1024 * 1024, false},
		{"1t", 1024 * 1024 * 1024 * 1024, false},
		{"", 0, true},
		{"xm", 0, true},
		{"1f", 0, true},
	}
	for _, tt := range tbl {
		t.Run(tt.inp, func(t *testing.T) {
			res, err := sizeParse(tt.inp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.res, res)
		})
	}
}

func TestCleanupResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := engine.NewSqlite(":memory:", "test")
	require.NoError(t, err)
	defer db.Close()
	results, err := storage.NewResults(ctx, db)
	require.NoError(t, err)

	params, err := akismet.NewParams(map[string]string{akismet.FieldUserIP: "127.0.0.1"})
	require.NoError(t, err)
	_, err = results.Add(ctx, storage.Record{Kind: storage.KindCheck, Params: params, CreatedAt: time.Now().Add(-2 * time.Hour)})
	require.NoError(t, err)
	_, err = results.Add(ctx, storage.Record{Kind: storage.KindCheck, Params: params})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		cleanupResults(ctx, results, time.Hour, time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool {
		count, err := results.Count(ctx)
		return err == nil && count == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, time.Minute, cleanupInterval(time.Minute))
	assert.Equal(t, 6*time.Minute, cleanupInterval(time.Hour))
	assert.Equal(t, time.Hour, cleanupInterval(30*24*time.Hour))
}
