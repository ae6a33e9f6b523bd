// Package site serves the embedded stylesheet and other static assets of
// the dashboard pages.
package site

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
)

// Prefix is the URL prefix the assets are served under.
const Prefix = "/static/"

// Register attaches the static asset routes to r.
func Register(_ context.Context, r *mux.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.PathPrefix(Prefix).Handler(Handler()).Methods(http.MethodGet)
}

// Handler serves the embedded assets under Prefix.
func Handler() http.Handler {
	return http.StripPrefix(Prefix, http.FileServer(FS()))
}
