package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/opsync/internal/server/storage/sqlite"
	"github.com/iudanet/opsync/internal/server/ws"
)

type safeBuffer struct {
	buf bytes.Buffer
	mu  gosync.Mutex
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunCommand_Session(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	hub := ws.NewHub(setupTestLogger(), store, nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	in, stdin := io.Pipe()
	out := &safeBuffer{}

	cmd := NewRootCommand(testBuild)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{
		"run",
		"--db", filepath.Join(t.TempDir(), "client.db"),
		"--server", "ws" + strings.TrimPrefix(srv.URL, "http"),
		"--types", "cases",
		"--resolver", "lww",
	})

	done := make(chan error, 1)
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	_, err = io.WriteString(stdin, `create cases {"title": "From the shell"}`+"\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		list, err := store.ListEntities(ctx, "cases")
		return err == nil && len(list) == 1
	}, 5*time.Second, 20*time.Millisecond)

	list, err := store.ListEntities(ctx, "cases")
	require.NoError(t, err)
	assert.Equal(t, "From the shell", list[0].Data["title"])
	assert.Equal(t, "anonymous", list[0].ModifiedBy)

	// подтверждение переводит временный id в серверный
	require.Eventually(t, func() bool {
		_, err := io.WriteString(stdin, "get cases "+list[0].ID+"\n")
		return err == nil && strings.Contains(out.String(), `"title": "From the shell"`)
	}, 5*time.Second, 50*time.Millisecond)

	_, err = io.WriteString(stdin, "quit\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("session did not stop")
	}
	assert.Contains(t, out.String(), "Created cases tmp_")
}

func TestRunCommand_NoEntityTypes(t *testing.T) {
	t.Setenv("OPSYNC_ENTITY_TYPES", " , ")

	_, err := execute(t, "run", "--db", filepath.Join(t.TempDir(), "client.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entity types configured")
}

func TestRunCommand_UnknownResolver(t *testing.T) {
	_, err := execute(t, "run", "--db", filepath.Join(t.TempDir(), "client.db"), "--resolver", "coin-flip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown resolver "coin-flip"`)
}
