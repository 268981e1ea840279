package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"finconsole/internal/logview"
)

func exportRecords() []logview.LogRecord {
	ts := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	return []logview.LogRecord{
		{ID: "1", Timestamp: ts, EventType: "LOGIN", Severity: "INFO", Username: "alice", Success: true},
		{ID: "2", Timestamp: ts.Add(time.Minute), EventType: "QUERY", Severity: "CRITICAL", Username: "bob", Success: false, ErrorMessage: `syntax error near "select"`},
	}
}

func TestCSV_LineCountAndQuoting(t *testing.T) {
	p, err := LogRecords(FormatCSV, exportRecords(), Options{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := string(p.Data)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want records+header = 3", len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `"`) {
			t.Fatalf("line %d is not fully quoted: %s", i, line)
		}
	}
	if !strings.Contains(lines[0], "중요도") {
		t.Fatalf("header is missing the Korean severity label: %s", lines[0])
	}
	// Embedded quotes are doubled, keeping the field intact.
	if !strings.Contains(lines[2], `""select""`) {
		t.Fatalf("quote escaping broken: %s", lines[2])
	}
}

func TestCSV_BOMPrefix(t *testing.T) {
	p, err := LogRecords(FormatCSV, exportRecords(), Options{WithBOM: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.HasPrefix(p.Data, []byte("\uFEFF")) {
		t.Fatalf("BOM missing")
	}
	p, _ = LogRecords(FormatCSV, exportRecords(), Options{})
	if bytes.HasPrefix(p.Data, []byte("\uFEFF")) {
		t.Fatalf("BOM present without opt-in")
	}
}

func TestJSON_PrettyPrinted(t *testing.T) {
	p, err := LogRecords(FormatJSON, exportRecords(), Options{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Contains(p.Data, []byte("\n  ")) {
		t.Fatalf("output is not indented")
	}
	var back []logview.LogRecord
	if err := json.Unmarshal(p.Data, &back); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(back) != 2 || back[0].ID != "1" {
		t.Fatalf("round trip lost data: %v", back)
	}
}

func TestCSVGzip_Decompresses(t *testing.T) {
	p, err := LogRecords(FormatCSVGzip, exportRecords(), Options{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer zr.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(zr); err != nil {
		t.Fatalf("decompress: %v", err)
	}
	plain, _ := LogRecords(FormatCSV, exportRecords(), Options{})
	if !bytes.Equal(buf.Bytes(), plain.Data) {
		t.Fatalf("gzip payload differs from plain CSV")
	}
}

func TestPDF_FallsBackToCSVWithNotice(t *testing.T) {
	p, err := LogRecords(FormatPDF, exportRecords(), Options{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if p.Extension != "csv" || p.Notice == "" {
		t.Fatalf("payload = %+v, want CSV fallback with notice", p)
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	if _, err := LogRecords("xlsx", exportRecords(), Options{}); err == nil {
		t.Fatalf("unknown format accepted")
	}
}
