package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestNewWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{ServiceName: "salon-api", Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	log.Warn().Str("unit_id", "u1").Msg("unit status overridden")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "salon-api", entry["service"])
	assert.Equal(t, "u1", entry["unit_id"])
	assert.Equal(t, "warn", entry["level"])
}
