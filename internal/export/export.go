package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"finconsole/internal/logview"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatCSVGzip Format = "csv.gz"
	FormatPDF     Format = "pdf"
)

// Payload is a finished client-side export: bytes plus what the HTTP layer
// needs to hand it to the browser. Notice is set when the requested format
// was substituted (PDF is not supported and falls back to CSV).
type Payload struct {
	Data        []byte
	ContentType string
	Extension   string
	Notice      string
}

type Options struct {
	WithBOM bool
}

const pdfFallbackNotice = "PDF 내보내기는 지원되지 않아 CSV로 대체되었습니다"

// LogRecords renders the filtered record set in the requested format.
func LogRecords(format Format, records []logview.LogRecord, opts Options) (Payload, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return Payload{}, err
		}
		return Payload{Data: data, ContentType: "application/json", Extension: "json"}, nil
	case FormatCSV, "":
		return Payload{
			Data:        logRecordsCSV(records, opts.WithBOM),
			ContentType: "text/csv; charset=utf-8",
			Extension:   "csv",
		}, nil
	case FormatCSVGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(logRecordsCSV(records, opts.WithBOM)); err != nil {
			return Payload{}, err
		}
		if err := zw.Close(); err != nil {
			return Payload{}, err
		}
		return Payload{Data: buf.Bytes(), ContentType: "application/gzip", Extension: "csv.gz"}, nil
	case FormatPDF:
		out, err := LogRecords(FormatCSV, records, opts)
		if err != nil {
			return Payload{}, err
		}
		out.Notice = pdfFallbackNotice
		return out, nil
	default:
		return Payload{}, fmt.Errorf("unknown export format %q", format)
	}
}

// Korean column labels, matching what the console pages print.
var csvHeader = []string{
	"ID",
	"시간",
	"이벤트 유형",
	"중요도",
	"위협 수준",
	"작업",
	"사용자",
	"자원 유형",
	"자원 ID",
	"소스 IP",
	"성공 여부",
	"오류 메시지",
	"메시지",
}

// logRecordsCSV emits one header line plus one line per record. Every field
// is double-quoted unconditionally so spreadsheet imports behave the same
// for every cell; the optional BOM keeps Excel decoding Korean as UTF-8.
func logRecordsCSV(records []logview.LogRecord, withBOM bool) []byte {
	var buf bytes.Buffer
	if withBOM {
		buf.WriteString("\uFEFF")
	}
	writeCSVLine(&buf, csvHeader)
	for _, r := range records {
		writeCSVLine(&buf, []string{
			r.ID,
			r.Timestamp.Format(time.RFC3339),
			r.EventType,
			r.Severity,
			r.ThreatLevel,
			r.Action,
			r.Username,
			r.ResourceType,
			r.ResourceID,
			r.SourceIP,
			strconv.FormatBool(r.Success),
			r.ErrorMessage,
			r.Message,
		})
	}
	return buf.Bytes()
}

func writeCSVLine(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
