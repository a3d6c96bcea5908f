package notify_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aussiebroadwan/clubhouse/internal/auth/notify"
	"github.com/stretchr/testify/require"
)

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := notify.LogSender{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	err := s.Send(context.Background(), notify.Message{To: "a@example.com", Subject: "hi", Text: "body"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"to":"a@example.com"`)
	require.Contains(t, buf.String(), `"subject":"hi"`)
}

func TestRecorder(t *testing.T) {
	r := &notify.Recorder{}
	require.NoError(t, r.Send(context.Background(), notify.Message{To: "x@example.com"}))
	require.Len(t, r.Sent(), 1)

	r.Err = errors.New("down")
	require.Error(t, r.Send(context.Background(), notify.Message{To: "y@example.com"}))
	require.Len(t, r.Sent(), 1)
}
