package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/cellarfeed/pkg/feed"
)

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	rc := NewRootCommand(strings.NewReader(""), &stdout, &stderr)
	rc.SetArgs(args)
	err := rc.Execute()
	return stdout.String(), err
}

func TestImportCommand(t *testing.T) {
	body := strings.Join(feed.Columns, ",") + "\n" +
		"2010,Sassicaia,Tenuta San Guido,Italy,Bolgheri,Red,6,75cl,1500,IB,In stock,,\n"
	srv := feedServer(t, http.StatusOK, body)

	out, err := execute("import",
		"--feed.url", srv.URL,
		"--store.driver", "bolt",
		"--store.bolt.path", filepath.Join(t.TempDir(), "catalog.db"),
		"--log.level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
}

func TestImportCommand_FailsOnBadFeed(t *testing.T) {
	srv := feedServer(t, http.StatusNotFound, "gone")

	_, err := execute("import", "--feed.url", srv.URL, "--feed.retries", "0", "--log.level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}

func TestImportCommand_BadConfig(t *testing.T) {
	_, err := execute("import", "--store.driver", "mongo")
	assert.ErrorContains(t, err, "unknown store.driver")
}
