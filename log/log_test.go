package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("trace")
	require.NoError(t, err)
	require.Equal(t, LevelTrace, lvl)

	lvl, err = ParseLevel("Warning")
	require.NoError(t, err)
	require.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestModuleFilterAndRecording(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	buf := new(bytes.Buffer)
	SetDefault(NewLogger(JSONHandlerWithLevel(buf, LevelTrace)))
	RecordLogs()

	DisableModule(Journal)
	Debug(Journal, "dropped")
	EnableModules(" evm_journal , ")
	Debug(Journal, "kept", "depth", 2)
	Info(Frame, "always")
	DisableModule(Journal)

	out, err := GetRecordedLogs()
	require.NoError(t, err)

	var got []StructuredLog
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		var sl StructuredLog
		require.NoError(t, json.Unmarshal(sc.Bytes(), &sl))
		got = append(got, sl)
	}
	require.Len(t, got, 2)
	require.Equal(t, "kept", got[0].Msg)
	require.Equal(t, Journal, got[0].Module)
	require.Equal(t, "2", got[0].Attrs["depth"])
	require.Equal(t, "info", got[1].Level)

	// the handler saw the same records
	require.Contains(t, buf.String(), `"msg":"kept"`)

	out, err = GetRecordedLogs()
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestWithAndJSONOutput(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	buf := new(bytes.Buffer)
	require.NoError(t, InitLoggerTo(buf, "info", true))
	require.Error(t, InitLoggerTo(buf, "loud", true))

	l := Root().With("tx", "0x01")
	l.RecordLogs()
	l.Write(LevelInfo, State, "committed", "accounts", 3)
	l.Write(LevelDebug, State, "below level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	require.Equal(t, "committed", rec["msg"])
	require.Equal(t, State, rec["module"])
	require.Equal(t, "0x01", rec["tx"])

	// recording keeps records the handler drops
	out, err := Root().GetRecordedLogs()
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count(out, []byte("\n")))
	require.Contains(t, string(out), `"tx":"0x01"`)
}
