package api

import (
	"fmt"
	"net/http"
	"time"
)

// NewServer creates a configured *http.Server for the gift and exchange API.
func NewServer(port uint16, handler http.Handler) *http.Server {
	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
