package message

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeClient records what the dispatcher hands to the transport.
type fakeClient struct {
	verbose   bool
	streams   int
	headers   string
	payload   bytes.Buffer
	closes    int
	streamErr error
}

func (c *fakeClient) SetVerbose(verbose bool) { c.verbose = verbose }

func (c *fakeClient) Stream(headers string, payload io.Reader) error {
	c.streams++
	c.headers = headers
	if c.streamErr != nil {
		return c.streamErr
	}
	_, err := io.Copy(&c.payload, payload)
	return err
}

func (c *fakeClient) Close() error {
	c.closes++
	return nil
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	return &buf
}

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestSendFromStdinUsesDefaultHeaders(t *testing.T) {
	stdin, err := os.Open(writeTempFile(t, []byte("Hello World\n")))
	require.NoError(t, err)
	defer stdin.Close()

	orig := os.Stdin
	os.Stdin = stdin
	t.Cleanup(func() { os.Stdin = orig })

	client := &fakeClient{}
	err = Send(client, Invocation{}, 1024)
	require.NoError(t, err)

	require.Equal(t, 1, client.streams)
	require.Equal(t, "source:iotsend\n\n", client.headers)
	require.Equal(t, "Hello World\n", client.payload.String())
}

func TestSendFromFileWithHeaders(t *testing.T) {
	path := writeTempFile(t, []byte("greetings"))

	client := &fakeClient{}
	inv := Invocation{RawHeaders: "source:iotsend;messagetype:greeting", FilePath: path}
	require.NoError(t, Send(client, inv, 1024))

	require.Equal(t, "source:iotsend\nmessagetype:greeting\n\n", client.headers)
	require.Equal(t, "greetings", client.payload.String())

	// The client handle belongs to the caller; the dispatcher must not
	// close it.
	require.Equal(t, 0, client.closes)
}

func TestSendMissingFileDoesNotDispatch(t *testing.T) {
	buf := captureLogs(t)

	client := &fakeClient{}
	inv := Invocation{FilePath: filepath.Join(t.TempDir(), "does-not-exist")}
	err := Send(client, inv, 1024)

	require.Error(t, err)
	require.Contains(t, err.Error(), "file not found")
	require.Contains(t, buf.String(), "File not found")
	require.Equal(t, 0, client.streams)
	require.Equal(t, 0, client.closes)
}

func TestSendOversizedFileWarnsAndStillDispatches(t *testing.T) {
	buf := captureLogs(t)

	path := writeTempFile(t, bytes.Repeat([]byte("x"), 2048))

	client := &fakeClient{}
	require.NoError(t, Send(client, Invocation{FilePath: path}, 1024))

	require.Contains(t, buf.String(), "truncated")
	require.Equal(t, 1, client.streams)
	// Truncation itself is the transport's job, not the dispatcher's.
	require.Equal(t, 2048, client.payload.Len())
}

func TestSendPropagatesTransportError(t *testing.T) {
	path := writeTempFile(t, []byte("data"))

	client := &fakeClient{streamErr: io.ErrClosedPipe}
	err := Send(client, Invocation{FilePath: path}, 1024)

	require.Error(t, err)
	require.ErrorIs(t, err, io.ErrClosedPipe)
}
