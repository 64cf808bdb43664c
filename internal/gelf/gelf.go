// Package gelf ships zap JSON log entries to Graylog as GELF over UDP.
package gelf

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// Writer sends one GELF message per zap entry and implements
// zapcore.WriteSyncer so it can be teed next to the stderr core.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
	now      func() time.Time
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "gelf: dial %s", addr)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}
	return &Writer{conn: conn, hostname: hostname, service: service, now: time.Now}, nil
}

// Write implements io.Writer. p holds one or more newline-terminated zap
// JSON entries. Send failures are dropped so logging never fails a caller.
func (w *Writer) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		payload, err := json.Marshal(w.message(line))
		if err != nil {
			continue
		}
		_, _ = w.conn.Write(payload)
	}
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer. UDP has nothing to flush.
func (w *Writer) Sync() error { return nil }

func (w *Writer) Close() error { return w.conn.Close() }

// message converts one zap entry to a GELF 1.1 message. Lines that are not
// JSON are shipped verbatim as the short message.
func (w *Writer) message(line []byte) map[string]any {
	msg := map[string]any{
		"version":  "1.1",
		"host":     w.hostname,
		"level":    6,
		"_service": w.service,
	}

	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		msg["short_message"] = string(line)
		msg["timestamp"] = float64(w.now().UnixNano()) / 1e9
		return msg
	}

	short, _ := entry["msg"].(string)
	if short == "" {
		short = "(empty)"
	}
	msg["short_message"] = short
	if ts, ok := entry["ts"].(float64); ok {
		msg["timestamp"] = ts
	} else {
		msg["timestamp"] = float64(w.now().UnixNano()) / 1e9
	}
	if lvl, ok := entry["level"].(string); ok {
		msg["level"] = syslogLevel(lvl)
	}
	if trace, ok := entry["stacktrace"].(string); ok {
		msg["full_message"] = trace
	}

	for k, v := range entry {
		switch k {
		case "msg", "ts", "level", "stacktrace":
			continue
		case "id":
			// "_id" is reserved by GELF.
			k = "id_field"
		}
		msg["_"+k] = v
	}
	return msg
}

// syslogLevel maps zap level names to syslog severities.
func syslogLevel(level string) int {
	switch level {
	case "debug":
		return 7
	case "info":
		return 6
	case "warn":
		return 4
	case "error":
		return 3
	case "dpanic", "panic", "fatal":
		return 2
	}
	return 6
}
