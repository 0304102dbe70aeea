package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// legacyUsers is the fake legacy search index, filtered by query substring.
var legacyUsers = []struct {
	username string
	body     string
}{
	{"alice", `{"username":"alice","name":"Alice","avatar":"https://img/a.png","score":1400,"userkey":"profileId:7","profileId":7}`},
	{"alicia", `{"username":"alicia","name":"Alicia","score":300,"userkey":"address:0x2"}`},
	{"bob", `{"username":"bob","name":"Bob","score":900,"userkey":"profileId:5","profileId":5}`},
}

// fakeUpstream serves the reputation API endpoints the CLI calls.
type fakeUpstream struct {
	down        atomic.Bool
	legacyCalls atomic.Int32
}

func (f *fakeUpstream) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.legacyCalls.Add(1)
		if f.down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		query := strings.ToLower(r.URL.Query().Get("query"))
		var values []string
		for _, u := range legacyUsers {
			if strings.Contains(u.username, query) {
				values = append(values, u.body)
			}
		}
		_, _ = w.Write([]byte(`{"ok":true,"data":{"values":[` + strings.Join(values, ",") + `]}}`))
	})
	mux.HandleFunc("GET /v2/score/userkey", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"level":"reputable"}`))
	})
	mux.HandleFunc("GET /v2/users/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"values":[]}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// withUpstream points the CLI configuration at a fresh fake upstream.
func withUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{}
	server := f.start(t)
	t.Setenv("ETHOS_API_URL", server.URL+"/v2")
	t.Setenv("ETHOS_LEGACY_API_URL", server.URL+"/v1")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OFFLINE_FALLBACK", "true")
	t.Setenv("PUBLIC_URL", "https://compare.test/")
	return f
}

// executeCommand runs the root command in-process with fresh flag values.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// getBinaryPath returns the path to the profile_compare binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "profile_compare"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/profile_compare ./cmd/profile_compare'", binaryPath)
	}

	return binaryPath
}
