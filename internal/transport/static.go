// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"

	applog "nebula/internal/log"
)

// StaticServer hosts a directory of visualizer assets over HTTP with
// permissive CORS and caching disabled, so edited assets show up on the
// next reload during development.
type StaticServer struct {
	addr   string
	server *http.Server
}

// NewStaticServer creates a server for the given directory and starts
// listening on addr.
func NewStaticServer(addr, dir string) *StaticServer {
	s := &StaticServer{
		addr: addr,
		server: &http.Server{
			Addr:    addr,
			Handler: StaticHandler(dir),
		},
	}

	go func() {
		applog.Infof("Transport: Static host serving %s on %s", dir, addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("Transport: Static host error: %v", err)
		}
	}()

	return s
}

// StaticHandler returns the file-serving handler with CORS and no-cache
// headers applied to every response.
func StaticHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		files.ServeHTTP(w, r)
	})
}

// Close shuts down the server.
func (s *StaticServer) Close() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}
