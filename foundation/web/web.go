// Package web is a thin layer over httptreemux that standardizes how the
// node's HTTP control surface reads values out of requests and writes JSON
// responses, matching the handler signature every v1 handler is written
// against: func(context.Context, http.ResponseWriter, *http.Request) error.
package web

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/google/uuid"
)

// ctxKey is the type used to store values in a request context, unexported
// so only this package can set or fetch them.
type ctxKey int

const valuesKey ctxKey = 1

// Values carry request-scoped metadata every handler can read back out of
// the context Decode/Respond were called with.
type Values struct {
	TraceID    string
	Now        time.Time
	StatusCode int
}

// Handler is the signature every v1 route handler implements. Returning an
// error lets App centralize status-code translation and logging instead of
// repeating it in every handler.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Logger matches the single method App needs from a logger, satisfied by
// *zap.SugaredLogger.
type Logger interface {
	Errorw(msg string, keysAndValues ...any)
}

// App wraps httptreemux with request-scoped trace IDs, central error to
// status-code translation, and the shutdown-on-integrity-error convention
// described in NewShutdownError. App itself does not recover panics raised
// by handlers.
type App struct {
	mux      *httptreemux.ContextMux
	log      Logger
	shutdown chan os.Signal
}

// NewApp constructs an App. shutdown receives os.Interrupt/SIGTERM so a
// handler can request an orderly process shutdown via NewShutdownError.
func NewApp(shutdown chan os.Signal, log Logger) *App {
	return &App{
		mux:      httptreemux.NewContextMux(),
		log:      log,
		shutdown: shutdown,
	}
}

// ServeHTTP satisfies http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Handle registers a versioned route, prefixing the version segment onto
// path so routes lay out as "/v1/...".
func (a *App) Handle(method, version, path string, handler Handler) {
	h := func(w http.ResponseWriter, r *http.Request) {
		v := Values{
			TraceID: uuid.NewString(),
			Now:     time.Now(),
		}
		ctx := context.WithValue(r.Context(), valuesKey, &v)

		if err := handler(ctx, w, r); err != nil {
			if shutdownErr, ok := isShutdownError(err); ok {
				a.log.Errorw("shutdown", "traceid", v.TraceID, "message", shutdownErr)
				a.signalShutdown()
				return
			}

			if sc, ok := err.(interface{ HTTPStatus() int }); ok {
				respondError(w, err.Error(), sc.HTTPStatus())
				a.log.Errorw("handler error", "traceid", v.TraceID, "ERROR", err)
				return
			}

			respondError(w, "internal error", http.StatusInternalServerError)
			a.log.Errorw("handler error", "traceid", v.TraceID, "ERROR", err)
		}
	}

	a.mux.Handle(method, "/"+version+path, h)
}

func (a *App) signalShutdown() {
	if a.shutdown != nil {
		a.shutdown <- syscall.SIGTERM
	}
}

// GetValues returns the Values stashed on ctx by Handle.
func GetValues(ctx context.Context) (*Values, error) {
	v, ok := ctx.Value(valuesKey).(*Values)
	if !ok {
		return nil, ErrNoValues
	}
	return v, nil
}

// Param returns a named path parameter, empty if not present.
func Param(r *http.Request, name string) string {
	return httptreemux.ContextParams(r.Context())[name]
}
