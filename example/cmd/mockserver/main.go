// Standalone mock form server for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/formpost run -c example/formpost.yaml
//	go run ./cmd/formpost post http://localhost:9999/check -p appName=mobile
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"
)

func main() {
	fmt.Println("Mock form server starting on :9999")
	fmt.Println("POST /check echoes the form; /slow waits 3s first")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	echo := func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Info("form received", "path", r.URL.Path, "form", r.PostForm.Encode())

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"received": r.PostForm,
			"decision": "accept",
		})
	}

	http.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)
		echo(w, r)
	})
	http.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
		echo(w, r)
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
