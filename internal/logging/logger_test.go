package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/automat/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: " warn ", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewWriter_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriter(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("visible", "error", errors.New("boom"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "err=boom")
}
