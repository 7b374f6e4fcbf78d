// Package rest serves the plain HTTP surface next to the websocket
// transport. Today that is a single liveness endpoint.
package rest

import (
	"fmt"
	"net/http"
	"time"
)

// Start - serves the REST endpoints on the given port and blocks.
func Start(port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlePing)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
