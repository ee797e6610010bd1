package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/akismet/app/checker"
	"github.com/umputun/akismet/app/config"
	"github.com/umputun/akismet/app/storage"
	"github.com/umputun/akismet/app/storage/engine"
	"github.com/umputun/akismet/app/webapi"
	"github.com/umputun/akismet/lib/akismet"
)

type options struct {
	Akismet struct {
		Key     string        `long:"key" env:"KEY" description:"akismet api key"`
		Website string        `long:"website" env:"WEBSITE" description:"website url registered with akismet"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"http client timeout for akismet"`
		Proxy   string        `long:"proxy" env:"PROXY" description:"proxy url for akismet requests"`
	} `group:"akismet" namespace:"akismet" env-namespace:"AKISMET"`

	Retry struct {
		Count int           `long:"count" env:"COUNT" default:"3" description:"attempts on transport failures"`
		Delay time.Duration `long:"delay" env:"DELAY" default:"500ms" description:"delay between attempts"`
	} `group:"retry" namespace:"retry" env-namespace:"RETRY"`

	DB struct {
		Connection string `long:"conn" env:"CONN" description:"database connection, sqlite file or postgres url, results are not stored if empty"`
		GID        string `long:"gid" env:"GID" default:"akismet" description:"group id to separate instances sharing the database"`
	} `group:"db" namespace:"db" env-namespace:"DB"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable rotated results log"`
		FileName   string `long:"file" env:"FILE" default:"akismet.log" description:"location of results log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	ConfigDB           bool   `long:"confdb" env:"CONFDB" description:"load settings from database, cli values are ignored"`
	ConfigDBEncryptKey string `long:"confdb-encrypt-key" env:"CONFDB_ENCRYPT_KEY" description:"master key to encrypt sensitive settings in database"`

	VerifyTTL       time.Duration `long:"verify-ttl" env:"VERIFY_TTL" default:"1h" description:"cache ttl of key verification, 0 disables cache"`
	ResultsMaxAge   time.Duration `long:"results-max-age" env:"RESULTS_MAX_AGE" default:"0s" description:"remove stored results older than this, 0 keeps all"`
	ResultsListSize int           `long:"results-list-size" env:"RESULTS_LIST_SIZE" default:"100" description:"default number of results returned by api"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`

	Verify       struct{}    `command:"verify" description:"verify api key"`
	Check        commentOpts `command:"check" description:"check comment for spam"`
	Spam         commentOpts `command:"spam" description:"submit missed spam"`
	Ham          commentOpts `command:"ham" description:"submit false positive"`
	Server       serverOpts  `command:"server" description:"run web api server"`
	SaveConfig   struct{}    `command:"save-config" description:"save current settings to database"`
	DeleteConfig struct{}    `command:"delete-config" description:"delete settings saved to database"`
}

// commentOpts defines the comment sent by check, spam and ham commands
type commentOpts struct {
	IP            string `long:"ip" required:"true" description:"ip address of the comment author"`
	UserAgent     string `long:"user-agent" description:"user agent of the comment author"`
	Referrer      string `long:"referrer" description:"referer header of the comment request"`
	Permalink     string `long:"permalink" description:"url of the page the comment was posted to"`
	Content       string `long:"content" required:"true" description:"comment text"`
	Type          string `long:"type" default:"comment" description:"comment type"`
	Author        string `long:"author" description:"author name"`
	Email         string `long:"email" description:"author email"`
	AuthorURL     string `long:"author-url" description:"author url"`
	Lang          string `long:"lang" description:"website language, i.e. en"`
	Charset       string `long:"charset" description:"website charset, i.e. UTF-8"`
	Role          string `long:"role" description:"user role, administrator is never spam"`
	RecheckReason string `long:"recheck-reason" description:"reason of the repeated check"`
	HoneypotName  string `long:"honeypot-name" description:"name of the honeypot field"`
	HoneypotValue string `long:"honeypot-value" description:"value of the honeypot field"`
	Test          bool   `long:"test" description:"mark request as test"`
}

type serverOpts struct {
	Listen     string `long:"listen" env:"SERVER_LISTEN" default:":8080" description:"listen address"`
	AuthPasswd string `long:"auth" env:"SERVER_AUTH" description:"basic auth password for user akismet"`
}

var revision = "local"

func main() {
	fmt.Fprintf(os.Stderr, "akismet %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	setupLog(opts.Dbg, secretsOf(optToSettings(opts, ""))...)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts, p.Active.Name, os.Stdout); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// execute assembles settings and runs the command, output goes to out
func execute(ctx context.Context, opts options, cmd string, out io.Writer) error {
	settings := optToSettings(opts, cmd)

	var db *engine.SQL
	if settings.Transient.DataBaseURL != "" {
		var err error
		if db, err = engine.New(ctx, settings.Transient.DataBaseURL, opts.DB.GID); err != nil {
			return fmt.Errorf("can't open database: %w", err)
		}
		defer db.Close()
	}

	if cmd == "save-config" || cmd == "delete-config" || settings.Transient.ConfigDB {
		store, err := makeConfigStore(ctx, db, settings)
		if err != nil {
			return err
		}
		switch cmd {
		case "save-config":
			if err := store.Save(ctx, settings); err != nil {
				return fmt.Errorf("can't save settings: %w", err)
			}
			log.Printf("[INFO] settings saved to database, gid:%s", db.GID())
			return writeJSON(out, map[string]any{"status": "ok", "gid": db.GID()})
		case "delete-config":
			if err := store.Delete(ctx); err != nil {
				return fmt.Errorf("can't delete settings: %w", err)
			}
			log.Printf("[INFO] settings deleted from database, gid:%s", db.GID())
			return writeJSON(out, map[string]any{"status": "ok", "gid": db.GID()})
		}
		if settings, err = loadSettings(ctx, store, settings); err != nil {
			return err
		}
		// secrets loaded from database are not known to the logger set up from cli values
		setupLog(settings.Transient.Dbg, secretsOf(settings)...)
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	log.Printf("[DEBUG] settings: %+v", settingsForLog(settings))

	client, err := config.MakeClient(settings)
	if err != nil {
		return err
	}

	var results *storage.Results
	if db != nil {
		if results, err = storage.NewResults(ctx, db); err != nil {
			return fmt.Errorf("can't make results storage: %w", err)
		}
	}

	logWr, err := makeResultsLogWriter(settings)
	if err != nil {
		return fmt.Errorf("can't make results log writer: %w", err)
	}
	defer logWr.Close()

	return run(ctx, runParams{cmd: cmd, opts: opts, settings: settings, client: client, results: results,
		resultsLog: logWr, out: out})
}

// runParams defines everything needed to run the command with assembled dependencies
type runParams struct {
	cmd        string
	opts       options
	settings   *config.Settings
	client     checker.AkismetClient
	results    *storage.Results // optional
	resultsLog io.Writer
	out        io.Writer
}

func run(ctx context.Context, rp runParams) error {
	chkCfg := checker.Config{
		Client:     rp.client,
		ResultsLog: rp.resultsLog,
		Attempts:   rp.settings.Retry.Count,
		RetryDelay: rp.settings.Retry.Delay,
		VerifyTTL:  rp.settings.VerifyTTL,
	}
	if rp.results != nil {
		chkCfg.Store = rp.results
	}

	switch rp.cmd {
	case "verify":
		valid, err := checker.New(chkCfg).Verify(ctx, "", "")
		if err != nil {
			return err
		}
		return writeJSON(rp.out, map[string]any{"valid": valid})

	case "check", "spam", "ham":
		copts := map[string]commentOpts{"check": rp.opts.Check, "spam": rp.opts.Spam, "ham": rp.opts.Ham}[rp.cmd]
		params, err := makeParams(copts, rp.settings.Akismet.WebsiteURL)
		if err != nil {
			return fmt.Errorf("invalid comment: %w", err)
		}
		chk := checker.New(chkCfg)
		if rp.cmd == "check" {
			verdict, err := chk.Check(ctx, params)
			if err != nil {
				return err
			}
			return writeJSON(rp.out, verdict)
		}
		submit := map[string]func(context.Context, akismet.Params) (string, error){
			"spam": chk.SubmitSpam, "ham": chk.SubmitHam}[rp.cmd]
		id, err := submit(ctx, params)
		if err != nil {
			return err
		}
		return writeJSON(rp.out, map[string]any{"status": "ok", "id": id})

	case "server":
		chkCfg.Metrics = checker.NewMetrics()
		srvCfg := webapi.Config{
			Version:    revision,
			ListenAddr: rp.settings.Server.ListenAddr,
			Checker:    checker.New(chkCfg),
			Metrics:    chkCfg.Metrics.Handler(),
			AuthPasswd: rp.settings.Server.AuthPasswd,
			ListSize:   rp.settings.ResultsListSize,
		}
		if rp.results != nil {
			srvCfg.Results = rp.results
			if rp.settings.ResultsMaxAge > 0 {
				go cleanupResults(ctx, rp.results, rp.settings.ResultsMaxAge, cleanupInterval(rp.settings.ResultsMaxAge))
			}
		}
		return webapi.NewServer(srvCfg).Run(ctx)
	}
	return fmt.Errorf("unknown command %q", rp.cmd)
}

// optToSettings converts cli options to source-independent settings
func optToSettings(opts options, cmd string) *config.Settings {
	res := config.New()
	res.InstanceID = opts.DB.GID
	res.Akismet = config.AkismetSettings{APIKey: opts.Akismet.Key, WebsiteURL: opts.Akismet.Website,
		Timeout: opts.Akismet.Timeout, Proxy: opts.Akismet.Proxy}
	res.Retry = config.RetrySettings{Count: opts.Retry.Count, Delay: opts.Retry.Delay}
	res.Logger = config.LoggerSettings{Enabled: opts.Logger.Enabled, FileName: opts.Logger.FileName,
		MaxSize: opts.Logger.MaxSize, MaxBackups: opts.Logger.MaxBackups}
	res.Server = config.ServerSettings{Enabled: cmd == "server", ListenAddr: opts.Server.Listen,
		AuthPasswd: opts.Server.AuthPasswd}
	res.VerifyTTL = opts.VerifyTTL
	res.ResultsMaxAge = opts.ResultsMaxAge
	res.ResultsListSize = opts.ResultsListSize
	res.Transient = config.TransientSettings{
		DataBaseURL:        opts.DB.Connection,
		ConfigDB:           opts.ConfigDB,
		ConfigDBEncryptKey: opts.ConfigDBEncryptKey,
		Dbg:                opts.Dbg,
	}
	return res
}

func makeConfigStore(ctx context.Context, db *engine.SQL, settings *config.Settings) (*config.Store, error) {
	if db == nil {
		return nil, errors.New("database connection is required for settings stored in database")
	}
	var crypter *config.Crypter
	if settings.Transient.ConfigDBEncryptKey != "" {
		var err error
		if crypter, err = config.NewCrypter(settings.Transient.ConfigDBEncryptKey, db.GID()); err != nil {
			return nil, fmt.Errorf("can't make crypter: %w", err)
		}
	}
	store, err := config.NewStore(ctx, db, crypter)
	if err != nil {
		return nil, fmt.Errorf("can't make settings store: %w", err)
	}
	return store, nil
}

// loadSettings loads settings from store, transient values and enabled server come from cli
func loadSettings(ctx context.Context, store *config.Store, cli *config.Settings) (*config.Settings, error) {
	res, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't load settings from database: %w", err)
	}
	res.Transient = cli.Transient
	res.Server.Enabled = cli.Server.Enabled
	if updated, err := store.LastUpdated(ctx); err == nil {
		log.Printf("[INFO] settings loaded from database, updated at %s", updated.Format(time.RFC3339))
	}
	return res, nil
}

// makeParams makes akismet parameters from command options, website is used if set
func makeParams(c commentOpts, website string) (akismet.Params, error) {
	ct, err := akismet.ParseCommentType(c.Type)
	if err != nil {
		return akismet.Params{}, err
	}
	params, err := akismet.Params{}.WithRequestParams(akismet.RequestInfo{
		IP: c.IP, UserAgent: c.UserAgent, Referrer: c.Referrer, Permalink: c.Permalink})
	if err != nil {
		return akismet.Params{}, err
	}
	if params, err = params.WithComment(akismet.Comment{Content: c.Content, Type: ct, Date: time.Now(),
		AuthorName: c.Author, AuthorEmail: c.Email, AuthorURL: c.AuthorURL}); err != nil {
		return akismet.Params{}, err
	}
	if website != "" {
		if params, err = params.WithHostInformation(website, c.Lang, c.Charset); err != nil {
			return akismet.Params{}, err
		}
	}
	if c.Role != "" {
		params = params.WithUserRole(c.Role)
	}
	if c.RecheckReason != "" {
		params = params.WithRecheckReason(c.RecheckReason)
	}
	if c.HoneypotName != "" {
		params = params.WithHoneyPot(c.HoneypotName, c.HoneypotValue)
	}
	if c.Test {
		params = params.MarkAsTest()
	}
	return params, nil
}

// cleanupResults removes old results on start and then every interval until ctx is canceled
func cleanupResults(ctx context.Context, results *storage.Results, maxAge, interval time.Duration) {
	log.Printf("[DEBUG] cleanup results older than %v every %v", maxAge, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := results.Cleanup(ctx, maxAge); err != nil {
			log.Printf("[WARN] can't cleanup results: %v", err)
		}
		select {
		case <-ctx.Done():
			log.Printf("[DEBUG] cleanup results stopped")
			return
		case <-ticker.C:
		}
	}
}

func cleanupInterval(maxAge time.Duration) time.Duration {
	return min(max(maxAge/10, time.Minute), time.Hour)
}

// makeResultsLogWriter creates results log writer, json line for every check or submission.
// It parses options and makes lumberjack logger with rotation.
func makeResultsLogWriter(settings *config.Settings) (io.WriteCloser, error) {
	if !settings.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	maxSize, err := sizeParse(settings.Logger.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", err)
	}
	maxSize /= 1048576

	log.Printf("[INFO] results log enabled for %s, max size %dM", settings.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   settings.Logger.FileName,
		MaxSize:    int(maxSize), // in MB
		MaxBackups: settings.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

// sizeParse converts size with optional k/m/g/t suffix to bytes
func sizeParse(inp string) (uint64, error) {
	if inp == "" {
		return 0, errors.New("empty value")
	}
	for i, sfx := range []string{"k", "m", "g", "t"} {
		if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
			val, err := strconv.Atoi(inp[:len(inp)-1])
			if err != nil {
				return 0, fmt.Errorf("can't parse %s: %w", inp, err)
			}
			return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
		}
	}
	return strconv.ParseUint(inp, 10, 64)
}

// secretsOf returns values to be masked in logs
func secretsOf(s *config.Settings) []string {
	return []string{s.Akismet.APIKey, s.Server.AuthPasswd, s.Transient.ConfigDBEncryptKey}
}

// settingsForLog returns a copy of settings with secrets masked
func settingsForLog(s *config.Settings) config.Settings {
	res := *s
	if res.Akismet.APIKey != "" {
		res.Akismet.APIKey = "*****"
	}
	if res.Server.AuthPasswd != "" {
		res.Server.AuthPasswd = "*****"
	}
	res.Transient.ConfigDBEncryptKey = ""
	return res
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("can't write output: %w", err)
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError, lgr.Out(os.Stderr)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces,
			lgr.StackTraceOnError, lgr.Out(os.Stderr)}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	nonEmpty := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
