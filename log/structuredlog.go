package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// StructuredLog is a recorded log line.
type StructuredLog struct {
	Time   time.Time         `json:"time"`
	Level  string            `json:"level"`
	Module string            `json:"module"`
	Msg    string            `json:"msg"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func newStructuredLog(level slog.Level, module string, msg string, kv []any) StructuredLog {
	sl := StructuredLog{
		Time:   time.Now().UTC(),
		Level:  LevelString(level),
		Module: module,
		Msg:    msg,
	}
	if len(kv) > 0 {
		sl.Attrs = toMap(kv...)
	}
	return sl
}

func encodeStructuredLogs(records []StructuredLog) ([]byte, error) {
	buf := &bytes.Buffer{}
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func toMap(kv ...interface{}) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			k = errorKey
		}
		m[k] = fmt.Sprint(kv[i+1])
	}
	if len(kv)%2 == 1 {
		m[errorKey] = fmt.Sprint(kv[len(kv)-1])
	}
	return m
}
