package message

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"iotsend/pkg/hub"
	"iotsend/pkg/payload"
)

// Send composes and dispatches exactly one message: normalize the
// headers, resolve the payload source, and make one blocking streaming
// call on the client. The payload source is released on every path;
// the client handle stays owned by the caller.
func Send(client hub.Client, inv Invocation, maxSize int64) error {
	headers := NormalizeHeaders(inv.RawHeaders)

	src, err := payload.Resolve(inv.FilePath, maxSize)
	if err != nil {
		logrus.Errorf("File not found: %s", inv.FilePath)
		return xerrors.Errorf("resolve payload: %w", err)
	}
	defer src.Close()

	if src.Oversized {
		logrus.Warnf("max message size exceeded, %s will be truncated (%d bytes)", src.Name, src.Size)
	}

	if inv.Verbose {
		logrus.Debugf("dispatching message %s from %s (%d header bytes)",
			uuid.New(), src.Name, len(headers))
	}

	if err := client.Stream(headers, src); err != nil {
		return xerrors.Errorf("stream message: %w", err)
	}
	return nil
}
