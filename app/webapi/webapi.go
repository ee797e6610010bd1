// Package webapi provides a web API for akismet checks and submissions.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/akismet/app/checker"
	"github.com/umputun/akismet/app/storage"
	"github.com/umputun/akismet/lib/akismet"
)

//go:generate moq --out mocks/checker.go --pkg mocks --with-resets --skip-ensure . Checker
//go:generate moq --out mocks/results.go --pkg mocks --with-resets --skip-ensure . Results

// Server is a web API server.
type Server struct {
	Config
}

// Config defines server parameters
type Config struct {
	Version    string       // version to show in /ping
	ListenAddr string       // listen address
	Checker    Checker      // akismet checker
	Results    Results      // stored results, optional
	Metrics    http.Handler // metrics handler, optional
	AuthPasswd string       // basic auth password for user "akismet"
	ListSize   int          // default number of results returned by /results
}

// Checker sends checks and submissions to akismet
type Checker interface {
	Verify(ctx context.Context, apiKey, websiteURL string) (bool, error)
	Check(ctx context.Context, params akismet.Params) (checker.Verdict, error)
	SubmitSpam(ctx context.Context, params akismet.Params) (string, error)
	SubmitHam(ctx context.Context, params akismet.Params) (string, error)
}

// Results provides access to stored results
type Results interface {
	Get(ctx context.Context, id string) (storage.Record, error)
	List(ctx context.Context, limit int) ([]storage.Record, error)
}

const (
	authUser     = "akismet"
	maxListSize  = 1000
	maxBodySize  = 1024 * 1024
	defaultLimit = 100
)

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	if config.ListSize <= 0 {
		config.ListSize = defaultLimit
	}
	return &Server{Config: config}
}

// Run starts server and accepts requests until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	srv := &http.Server{Addr: s.ListenAddr, Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout: 10 * time.Second, WriteTimeout: 60 * time.Second, IdleTimeout: 30 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	lmt := tollbooth.NewLimiter(50, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr", IndexFromRight: 0})

	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.AppInfo("akismet", "umputun", s.Version), rest.Ping)
	router.Use(tollbooth.HTTPMiddleware(lmt))
	router.Use(rest.SizeLimit(maxBodySize))

	if s.Metrics != nil {
		router.Handle("GET /metrics", s.Metrics)
	}

	router.Group().Route(func(api *routegroup.Bundle) {
		api.Use(s.authMiddleware(rest.BasicAuthWithUserPasswd(authUser, s.AuthPasswd)))
		api.HandleFunc("GET /verify", s.verifyHandler)                             // verify api key
		api.HandleFunc("POST /check", s.checkHandler)                              // check params for spam
		api.HandleFunc("POST /submit/spam", s.submitHandler(s.Checker.SubmitSpam)) // report missed spam
		api.HandleFunc("POST /submit/ham", s.submitHandler(s.Checker.SubmitHam))   // report false positive
		api.HandleFunc("GET /results", s.listResultsHandler)                       // recent stored results
		api.HandleFunc("GET /results/{id}", s.getResultHandler)                    // single stored result
	})

	// comment form posted by browser, request metadata comes from the request itself
	router.Group().Route(func(web *routegroup.Bundle) {
		web.Use(rest.RealIP)
		web.Use(s.authMiddleware(rest.BasicAuthWithPrompt(authUser, s.AuthPasswd)))
		web.HandleFunc("POST /comment", s.commentHandler)
	})

	return router
}

// verifyHandler handles GET /verify, optional key and blog query params override configured values
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	valid, err := s.Checker.Verify(r.Context(), r.URL.Query().Get("key"), r.URL.Query().Get("blog"))
	if err != nil {
		s.sendError(w, err, "verification failed")
		return
	}
	rest.RenderJSON(w, rest.JSON{"valid": valid})
}

// checkHandler handles POST /check with json object of akismet parameters
func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	params, err := decodeParams(r)
	if err != nil {
		s.sendError(w, err, "can't decode request")
		return
	}
	s.check(w, r, params)
}

// commentHandler handles POST /comment with a form. IP, user agent, referrer and permalink
// are taken from the request.
func (s *Server) commentHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't parse form", "details": err.Error()})
		return
	}

	commentType := akismet.CommentTypeComment
	if ct := r.PostFormValue(akismet.FieldCommentType); ct != "" {
		parsed, err := akismet.ParseCommentType(ct)
		if err != nil {
			s.sendError(w, err, "invalid comment type")
			return
		}
		commentType = parsed
	}

	params, err := akismet.FromRequest(r)
	if err != nil {
		s.sendError(w, err, "can't get request info")
		return
	}
	params, err = params.WithComment(akismet.Comment{
		Content:     r.PostFormValue(akismet.FieldCommentContent),
		Type:        commentType,
		Date:        time.Now(),
		AuthorName:  r.PostFormValue(akismet.FieldCommentAuthor),
		AuthorEmail: r.PostFormValue(akismet.FieldCommentAuthorEmail),
		AuthorURL:   r.PostFormValue(akismet.FieldCommentAuthorURL),
	})
	if err != nil {
		s.sendError(w, err, "invalid comment")
		return
	}
	s.check(w, r, params)
}

func (s *Server) check(w http.ResponseWriter, r *http.Request, params akismet.Params) {
	verdict, err := s.Checker.Check(r.Context(), params)
	if err != nil {
		s.sendError(w, err, "check failed")
		return
	}
	rest.RenderJSON(w, rest.JSON{"id": verdict.ID, "spam": verdict.Spam, "result": verdict.Result})
}

// submitHandler handles POST /submit/spam and POST /submit/ham
func (s *Server) submitHandler(submitFn func(context.Context, akismet.Params) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := decodeParams(r)
		if err != nil {
			s.sendError(w, err, "can't decode request")
			return
		}
		id, err := submitFn(r.Context(), params)
		if err != nil {
			s.sendError(w, err, "submission failed")
			return
		}
		rest.RenderJSON(w, rest.JSON{"status": "ok", "id": id})
	}
}

// listResultsHandler handles GET /results?limit=N
func (s *Server) listResultsHandler(w http.ResponseWriter, r *http.Request) {
	if s.Results == nil {
		w.WriteHeader(http.StatusNotFound)
		rest.RenderJSON(w, rest.JSON{"error": "results storage is not configured"})
		return
	}

	limit := s.ListSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			rest.RenderJSON(w, rest.JSON{"error": "invalid limit", "details": fmt.Sprintf("expected positive number, got %q", v)})
			return
		}
		limit = min(n, maxListSize)
	}

	recs, err := s.Results.List(r.Context(), limit)
	if err != nil {
		s.sendError(w, err, "can't list results")
		return
	}
	rest.RenderJSON(w, recs)
}

// getResultHandler handles GET /results/{id}
func (s *Server) getResultHandler(w http.ResponseWriter, r *http.Request) {
	if s.Results == nil {
		w.WriteHeader(http.StatusNotFound)
		rest.RenderJSON(w, rest.JSON{"error": "results storage is not configured"})
		return
	}
	rec, err := s.Results.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.sendError(w, err, "can't get result")
		return
	}
	rest.RenderJSON(w, rec)
}

// sendError responds with the status matching the error category. Details of client errors are returned
// as is, upstream and internal failures are only logged.
func (s *Server) sendError(w http.ResponseWriter, err error, msg string) {
	code, details := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, akismet.ErrInvalidParams):
		code, details = http.StatusBadRequest, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		code, details = http.StatusNotFound, err.Error()
	case errors.Is(err, akismet.ErrAPI):
		code, details = http.StatusBadGateway, akismet.ErrAPI.Error()
		var apiErr *akismet.APIError
		if errors.As(err, &apiErr) && apiErr.Code != 0 {
			details = fmt.Sprintf("%s, code %d", details, apiErr.Code)
		}
	case errors.Is(err, akismet.ErrTransport):
		code, details = http.StatusServiceUnavailable, akismet.ErrTransport.Error()
	}
	log.Printf("[WARN] %s: %v", msg, err)
	w.WriteHeader(code)
	rest.RenderJSON(w, rest.JSON{"error": msg, "details": details})
}

func (s *Server) authMiddleware(mw func(next http.Handler) http.Handler) func(next http.Handler) http.Handler {
	if s.AuthPasswd == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

// decodeParams reads json object of akismet parameters from request body.
// Any decoding failure is reported as invalid params.
func decodeParams(r *http.Request) (akismet.Params, error) {
	var params akismet.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		var verr *akismet.ValidationError
		if errors.As(err, &verr) {
			return akismet.Params{}, verr
		}
		return akismet.Params{}, &akismet.ValidationError{Message: fmt.Sprintf("can't decode params: %v", err)}
	}
	return params, nil
}
