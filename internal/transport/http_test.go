package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbase/migration-runner/internal/transport"
)

func TestHTTPAPI_Exec_returnsRows(t *testing.T) {
	t.Parallel()

	var gotBody struct {
		Query string `json:"query"`
	}

	var gotAuth, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rows": [["001_a.sql"], ["002_b.sql"]]}`))
	}))
	defer srv.Close()

	api := transport.NewHTTP(srv.URL, "token-123")

	rows, err := api.Exec(context.Background(), "SELECT filename FROM _schema_migrations")

	require.NoError(t, err)
	assert.Equal(t, transport.Rows{{"001_a.sql"}, {"002_b.sql"}}, rows)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "SELECT filename FROM _schema_migrations", gotBody.Query)
}

func TestHTTPAPI_Exec_noToken_noAuthHeader(t *testing.T) {
	t.Parallel()

	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"rows": []}`))
	}))
	defer srv.Close()

	api := transport.NewHTTP(srv.URL, "")

	_, err := api.Exec(context.Background(), "SELECT 1")

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestHTTPAPI_Exec_serverError_wrapsErrExec(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `relation "nope" does not exist`, http.StatusBadRequest)
	}))
	defer srv.Close()

	api := transport.NewHTTP(srv.URL, "")

	_, err := api.Exec(context.Background(), "SELECT * FROM nope")

	require.ErrorIs(t, err, transport.ErrExec)
	assert.Contains(t, err.Error(), `relation "nope" does not exist`)
}

func TestHTTPAPI_Exec_unreachable_wrapsErrUnavailable(t *testing.T) {
	t.Parallel()

	api := transport.NewHTTP("http://127.0.0.1:1/query", "")

	_, err := api.Exec(context.Background(), "SELECT 1")

	require.ErrorIs(t, err, transport.ErrUnavailable)
}

func TestHTTPAPI_Exec_badJSON_wrapsErrExec(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	api := transport.NewHTTP(srv.URL, "")

	_, err := api.Exec(context.Background(), "SELECT 1")

	require.ErrorIs(t, err, transport.ErrExec)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestHTTPAPI_ExecFile_sendsFileContent(t *testing.T) {
	t.Parallel()

	var gotBody struct {
		Query string `json:"query"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"rows": []}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "001_a.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE a (id INT);"), 0o600))

	api := transport.NewHTTP(srv.URL, "")

	err := api.ExecFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE a (id INT);", gotBody.Query)
}

func TestHTTPAPI_ExecFile_missingFile(t *testing.T) {
	t.Parallel()

	api := transport.NewHTTP("http://unused.example.com", "")

	err := api.ExecFile(context.Background(), "/nonexistent/001_a.sql")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading script")
}
