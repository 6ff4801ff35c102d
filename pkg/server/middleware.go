package server

import (
	"net/http"
	"time"

	"github.com/streetninja/ninjabrain/config"
	"github.com/streetninja/ninjabrain/pkg/auth"
	"github.com/streetninja/ninjabrain/pkg/models"
	"github.com/streetninja/ninjabrain/pkg/server/handlertools"
)

const versionHeader = "X-Ninjabrain-Version"

// SendVersion is a middleware that adds the current version to the response
func SendVersion(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get(versionHeader) == "" {
			w.Header().Add(
				versionHeader,
				config.VersionString,
			)
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// Authenticator rejects requests without a verified token. It must run after
// auth.JWTVerifier. Rejections are rendered as error envelopes.
func Authenticator(errorsAsOK bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Authenticated(r) {
				handlertools.RenderError(
					w,
					r,
					&models.UnauthorizedError{},
					time.Now(),
					errorsAsOK,
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
