package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew_JSONConServicioComponenteYSucursal(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "pos-ledger", Output: &buf})

	l.Component("sync").Branch("br-1").Info().Msg("lote recibido")
	l.Debug().Msg("descartado por nivel")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "pos-ledger", lines[0]["service"])
	assert.Equal(t, "sync", lines[0]["component"])
	assert.Equal(t, "br-1", lines[0]["branch_id"])
	assert.Equal(t, "lote recibido", lines[0]["message"])
}

func TestBranch_VacioNoAgregaCampo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Output: &buf})

	assert.Same(t, l, l.Branch(""))
	l.Branch("").Warn().Msg("x")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "branch_id")
	assert.NotContains(t, lines[0], "service")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("ruidoso"))
}
