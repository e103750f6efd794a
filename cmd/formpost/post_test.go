package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRunPost_Params(t *testing.T) {
	server := echoServer(t)

	output, err := executeCmd(t, "post", server.URL,
		"-d", "appName=mobile&eventId=mobile_test",
		"-p", "invokeType=10",
		"-p", "note=a&b=c",
	)
	if err != nil {
		t.Fatalf("post command error = %v", err)
	}

	got := parseEcho(t, output)
	want := map[string]string{
		"appName":    "mobile",
		"eventId":    "mobile_test",
		"invokeType": "10",
		"note":       "a&b=c",
	}
	for k, v := range want {
		if got.Get(k) != v {
			t.Errorf("param %s = %q, want %q", k, got.Get(k), v)
		}
	}
}

func TestRunPost_JSON(t *testing.T) {
	server := echoServer(t)

	output, err := executeCmd(t, "post", server.URL,
		"-j", `{"user":{"name":"alice"},"tags":["a","b"]}`,
	)
	if err != nil {
		t.Fatalf("post command error = %v", err)
	}

	got := parseEcho(t, output)
	if got.Get("user[name]") != "alice" {
		t.Errorf("user[name] = %q, want %q", got.Get("user[name]"), "alice")
	}
	tags := got["tags[]"]
	if len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("tags[] = %v, want [a b]", tags)
	}
}

func TestRunPost_ErrorStatusPrintsBody(t *testing.T) {
	server := echoServer(t)

	output, err := executeCmd(t, "post", server.URL+"?status=500", "-p", "k=v")
	if err != nil {
		t.Fatalf("post command error = %v (status codes must not fail the post)", err)
	}
	// printed byte for byte, no trailing newline added
	if output != "k=v" {
		t.Errorf("output = %q, want %q", output, "k=v")
	}
}

func TestRunPost_ConfigHeaders(t *testing.T) {
	headers := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Get("User-Agent")
	}))
	defer server.Close()

	configPath := writeConfig(t, `
headers:
  User-Agent: formpost-cli-test
log:
  level: error
`)

	if _, err := executeCmd(t, "post", server.URL, "-c", configPath); err != nil {
		t.Fatalf("post command error = %v", err)
	}
	if ua := <-headers; ua != "formpost-cli-test" {
		t.Errorf("User-Agent = %q, want %q", ua, "formpost-cli-test")
	}
}

func TestRunPost_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing url",
			args:    []string{"post"},
			wantErr: "accepts 1 arg",
		},
		{
			name:    "bad param",
			args:    []string{"post", "http://example.com", "-p", "novalue"},
			wantErr: "expected key=value",
		},
		{
			name:    "bad json",
			args:    []string{"post", "http://example.com", "-j", "{not json"},
			wantErr: "--json",
		},
		{
			name:    "unreachable host",
			args:    []string{"post", closedServerURL(t), "-t", "2s"},
			wantErr: "post ",
		},
		{
			name:    "missing config",
			args:    []string{"post", "http://example.com", "-c", "/nonexistent/formpost.yaml"},
			wantErr: "failed to load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCmd(t, tt.args...)
			if err == nil {
				t.Fatalf("post command expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
