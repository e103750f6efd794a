package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// newMockFormHandler returns a handler that echoes the posted form as JSON.
//
// Responses take 50-200ms. About one request in failEvery answers 503 with
// a plain-text body, to show that bodies are returned for every status.
func newMockFormHandler(failEvery int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if failEvery > 0 && rand.Intn(failEvery) == 0 {
			slog.Info("mock failure", "form", r.PostForm.Encode())
			http.Error(w, "service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"received": r.PostForm,
			"decision": "accept",
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})
	return mux
}

// StartMockFormServer serves [newMockFormHandler] on addr.
// Call this in a goroutine before posting.
func StartMockFormServer(addr string) {
	if err := http.ListenAndServe(addr, newMockFormHandler(5)); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
