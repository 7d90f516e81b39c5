// Package transfer reads and writes the portable exhibit file: a JSON array
// of exhibit records using the wire field names.
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"exhibitcore/pkg/domain"
)

// ContentType is the media type of an export file.
const ContentType = "application/json"

// ExportFilename names an export file after the calendar date of now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("exhibits_%s.json", now.Format(domain.DateLayout))
}

// Encode writes exhibits as an indented JSON array. A nil slice encodes as [].
func Encode(w io.Writer, exhibits []domain.Exhibit) error {
	if exhibits == nil {
		exhibits = []domain.Exhibit{}
	}
	data, err := json.MarshalIndent(exhibits, "", "  ")
	if err != nil {
		return fmt.Errorf("encode exhibits: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// TooLargeError reports an import payload above the configured size limit.
type TooLargeError struct {
	Limit int64
}

func (e TooLargeError) Error() string {
	return fmt.Sprintf("import payload exceeds %d bytes", e.Limit)
}

// LimitReader returns a reader over r that fails with TooLargeError once more
// than limit bytes have been read. A non-positive limit returns r unchanged.
func LimitReader(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &limitedReader{r: r, left: limit, limit: limit}
}

type limitedReader struct {
	r     io.Reader
	left  int64
	limit int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, TooLargeError{Limit: l.limit}
	}
	// one byte past the limit is enough to detect an oversized payload
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return 0, TooLargeError{Limit: l.limit}
	}
	return n, err
}

var requiredKeys = []string{"id", "serialNumber", "dateReceived"}

// Decode parses and validates an import payload. The payload must be a JSON
// array; each element needs a non-empty id, serialNumber and dateReceived and
// may not repeat an id or serial already seen. Absent remarks and collection
// status default to Unexploited and Not Collected. Any problem is reported as
// a domain.FormatError naming the 1-based element position.
func Decode(r io.Reader) ([]domain.Exhibit, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import payload: %w", err)
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.FormatError{Reason: "expected a JSON array of exhibits"}
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, domain.FormatError{Err: err}
	}
	out := make([]domain.Exhibit, 0, len(elements))
	seenIDs := make(map[string]int, len(elements))
	seenSerials := make(map[string]int, len(elements))
	for i, raw := range elements {
		pos := i + 1
		e, err := decodeElement(raw)
		if err != nil {
			return nil, domain.FormatError{Position: pos, Err: err}
		}
		if first, dup := seenIDs[e.ID]; dup {
			return nil, domain.FormatError{Position: pos, Reason: fmt.Sprintf("duplicate id %q (first at position %d)", e.ID, first)}
		}
		if first, dup := seenSerials[e.SerialNumber]; dup {
			return nil, domain.FormatError{Position: pos, Reason: fmt.Sprintf("duplicate serialNumber %q (first at position %d)", e.SerialNumber, first)}
		}
		seenIDs[e.ID] = pos
		seenSerials[e.SerialNumber] = pos
		out = append(out, e)
	}
	return out, nil
}

func decodeElement(raw json.RawMessage) (domain.Exhibit, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.Exhibit{}, fmt.Errorf("element is not an object")
	}
	for _, key := range requiredKeys {
		value, ok := fields[key]
		if !ok || isBlank(value) {
			return domain.Exhibit{}, fmt.Errorf("missing %s", key)
		}
	}
	var e domain.Exhibit
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.Exhibit{}, err
	}
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.SerialNumber) == "" || e.DateReceived.IsZero() {
		return domain.Exhibit{}, fmt.Errorf("missing id, serialNumber or dateReceived")
	}
	if e.Remarks == "" {
		e.Remarks = domain.RemarksUnexploited
	}
	if e.CollectionStatus == "" {
		e.CollectionStatus = domain.StatusNotCollected
	}
	return e, nil
}

func isBlank(value json.RawMessage) bool {
	v := bytes.TrimSpace(value)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}
