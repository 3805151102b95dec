package jenkins

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/jenkins-reporter/junit"
)

const replayStream = `{"type":"run_start","browsers":[{"id":"1","name":"Chrome"}]}
{"type":"browser_start","browser":{"id":"1","name":"Chrome","fullName":"Chrome 120"}}
{"type":"message","message":"LOG: 'hello'"}
{"type":"spec_complete","browser":{"id":"1","name":"Chrome"},"result":{"description":"works","suite":["A","B"],"success":true,"time":150}}
{"type":"spec_complete","browser":{"id":"1","name":"Chrome"},"result":{"description":"breaks","suite":["A"],"log":["Expected 1 to be 2."]}}
{"type":"browser_complete","browser":{"id":"1","name":"Chrome","lastResult":{"total":2,"success":1,"failed":1,"netTime":170}}}
{"type":"run_complete"}
`

type shutdownRecorder struct {
	called chan error
}

func newShutdownRecorder() *shutdownRecorder {
	return &shutdownRecorder{called: make(chan error, 1)}
}

func (s *shutdownRecorder) callback(err error) {
	s.called <- err
}

func (s *shutdownRecorder) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-s.called:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not called")
		return nil
	}
}

func readReport(t *testing.T, path string) *junit.TestSuites {
	t.Helper()
	doc, err := junit.ParseFile(path)
	require.NoError(t, err)
	return doc
}

func TestReplayFromFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventsPath = filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(cfg.EventsPath, []byte(replayStream), 0644))

	shutdown := newShutdownRecorder()
	app, err := New(context.Background(), cfg, "test", shutdown.callback)
	require.NoError(t, err)

	require.NoError(t, app.Start(context.Background()))
	require.NoError(t, shutdown.wait(t))
	assert.False(t, app.Stopped())
	require.NoError(t, app.Stop(context.Background()))
	assert.True(t, app.Stopped())

	doc := readReport(t, cfg.OutputFile)
	require.Len(t, doc.Suites, 1)
	suite := doc.Suites[0]
	assert.Equal(t, "Chrome", suite.Name)
	assert.Equal(t, "MyPkg", suite.Package)
	assert.Equal(t, 2, *suite.Tests)
	assert.Equal(t, 1, *suite.Failures)
	assert.Equal(t, junit.Seconds(0.17), *suite.Time)
	assert.Equal(t, "LOG: 'hello'\n", suite.SystemOut.Data)
	require.Len(t, suite.TestCases, 2)
	assert.Equal(t, "A B works", suite.TestCases[0].Name)
	assert.Equal(t, "Chrome.MyPkg.A", suite.TestCases[0].Classname)
	require.Len(t, suite.TestCases[1].Failures, 1)
	assert.Equal(t, "Expected 1 to be 2.\n", suite.TestCases[1].Failures[0].Message)
}

func TestReplayFromStdinWithSummary(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventsPath = "-"
	cfg.PrintSummary = true

	shutdown := newShutdownRecorder()
	app, err := New(context.Background(), cfg, "test", shutdown.callback)
	require.NoError(t, err)
	stdout := &bytes.Buffer{}
	app.stdin = strings.NewReader(replayStream)
	app.stdout = stdout

	require.NoError(t, app.Start(context.Background()))
	require.NoError(t, shutdown.wait(t))

	_, err = os.Stat(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Chrome")
	assert.Contains(t, stdout.String(), "TOTAL")
}

func TestReplayErrors(t *testing.T) {
	t.Run("missing events file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EventsPath = filepath.Join(t.TempDir(), "missing.jsonl")

		app, err := New(context.Background(), cfg, "test", newShutdownRecorder().callback)
		require.NoError(t, err)
		err = app.Start(context.Background())
		require.Error(t, err)
		var runtimeErr *RuntimeError
		assert.ErrorAs(t, err, &runtimeErr)
	})

	t.Run("corrupt stream", func(t *testing.T) {
		cfg := testConfig(t)
		app, err := New(context.Background(), cfg, "test", newShutdownRecorder().callback)
		require.NoError(t, err)
		app.stdin = strings.NewReader(`{"type":"run_start"} {"type":`)

		err = app.Start(context.Background())
		require.Error(t, err)
		var runtimeErr *RuntimeError
		assert.ErrorAs(t, err, &runtimeErr)
		assert.Contains(t, err.Error(), "failed to replay events")
	})
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, "test", func(error) {})
	require.Error(t, err)
}

func TestServerMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.ListenAddr = "127.0.0.1:0"

	app, err := New(context.Background(), cfg, "test", newShutdownRecorder().callback)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))

	var batch strings.Builder
	batch.WriteString("[")
	for i, line := range strings.Split(strings.TrimSpace(replayStream), "\n") {
		if i > 0 {
			batch.WriteString(",")
		}
		batch.WriteString(line)
	}
	batch.WriteString("]")

	resp, err := http.Post("http://"+app.ingest.Addr()+"/events", "application/json", strings.NewReader(batch.String()))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Stop(ctx))
	assert.True(t, app.Stopped())

	doc := readReport(t, cfg.OutputFile)
	require.Len(t, doc.Suites, 1)
	assert.Len(t, doc.Suites[0].TestCases, 2)

	// stopping again is a no-op
	require.NoError(t, app.Stop(ctx))
}

func TestServerStopWithRequestInFlight(t *testing.T) {
	cfg := testConfig(t)
	cfg.ListenAddr = "127.0.0.1:0"

	app, err := New(context.Background(), cfg, "test", newShutdownRecorder().callback)
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))

	body := `{"type":"run_start"}`
	conn, err := net.Dial("tcp", app.ingest.Addr())
	require.NoError(t, err)
	defer conn.Close()
	_, err = fmt.Fprintf(conn, "POST /events HTTP/1.1\r\nHost: localhost\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n", len(body))
	require.NoError(t, err)
	// let the handler start reading the body
	time.Sleep(100 * time.Millisecond)

	// the handler is still active, so the ingest server cannot stop in time
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, app.Stop(ctx))
	assert.True(t, app.Stopped())

	// the late request is refused instead of reaching the queue
	_, err = conn.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
