package transfer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"exhibitcore/pkg/domain"
)

func sample() []domain.Exhibit {
	reason := domain.ReasonDeviceLocked
	collectedOn := domain.MustParseDate("2025-03-20")
	by := "Cpl. Njeri"
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []domain.Exhibit{
		{ID: "a", SerialNumber: "001-03-2025", DateReceived: domain.MustParseDate("2025-03-01"), ReceivingOfficer: "PC Wanjiru", Examiner: "Dr. Achieng", InvestigatingOfficer: "Insp. Mwangi", Station: "Central", AccusedPerson: "John Doe", Description: "Phone", Remarks: domain.RemarksUnexploited, UnexploitationReason: &reason, CollectionStatus: domain.StatusCollected, CollectionDate: &collectedOn, CollectedBy: &by, CreatedAt: created, UpdatedAt: created.Add(time.Hour)},
		{ID: "b", SerialNumber: "002-03-2025", DateReceived: domain.MustParseDate("2025-03-02"), Remarks: domain.RemarksExploited, CollectionStatus: domain.StatusNotCollected, CreatedAt: created, UpdatedAt: created},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  {") {
		t.Fatalf("expected indented output, got %s", buf.String())
	}
	for _, key := range []string{`"serialNumber"`, `"dateReceived": "2025-03-01"`, `"collectionStatus": "Collected"`, `"unexploitationReason": "Device Locked"`} {
		if !strings.Contains(buf.String(), key) {
			t.Fatalf("expected %s in export, got %s", key, buf.String())
		}
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := sample()
	if len(got) != len(want) {
		t.Fatalf("expected %d exhibits, got %d", len(want), len(got))
	}
	if *got[0].CollectedBy != "Cpl. Njeri" || !got[0].CollectionDate.Equal(*want[0].CollectionDate) || *got[0].UnexploitationReason != domain.ReasonDeviceLocked {
		t.Fatalf("collection fields lost: %+v", got[0])
	}
	if !got[0].UpdatedAt.Equal(want[0].UpdatedAt) || got[1].Remarks != domain.RemarksExploited {
		t.Fatalf("round trip changed records: %+v", got)
	}
}

func TestEncodeNilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected [], got %q", buf.String())
	}
}

func TestDecodeRejectsNonArray(t *testing.T) {
	for _, payload := range []string{`{"id":"x"}`, ``, `"text"`, `not json`} {
		_, err := Decode(strings.NewReader(payload))
		var ferr domain.FormatError
		if !errors.As(err, &ferr) || ferr.Position != 0 {
			t.Fatalf("payload %q: expected whole-payload format error, got %v", payload, err)
		}
		if !strings.HasPrefix(err.Error(), "invalid data format") {
			t.Fatalf("unexpected message %q", err.Error())
		}
	}
}

func TestDecodeReportsPositions(t *testing.T) {
	cases := map[string]string{
		"missing id":        `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"serialNumber":"002-01-2025","dateReceived":"2025-01-01"}]`,
		"blank serial":      `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"id":"b","serialNumber":"","dateReceived":"2025-01-01"}]`,
		"null date":         `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"id":"b","serialNumber":"002-01-2025","dateReceived":null}]`,
		"bad remarks":       `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"id":"b","serialNumber":"002-01-2025","dateReceived":"2025-01-01","remarks":"Maybe"}]`,
		"bad date":          `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"id":"b","serialNumber":"002-01-2025","dateReceived":"yesterday"}]`,
		"not an object":     `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},42]`,
		"duplicate id":      `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"id":"a","serialNumber":"002-01-2025","dateReceived":"2025-01-01"}]`,
		"duplicate serial":  `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"id":"b","serialNumber":"001-01-2025","dateReceived":"2025-01-01"}]`,
		"bad status":        `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"id":"b","serialNumber":"002-01-2025","dateReceived":"2025-01-01","collectionStatus":"Lost"}]`,
		"bad reason string": `[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01"},{"id":"b","serialNumber":"002-01-2025","dateReceived":"2025-01-01","unexploitationReason":"Bored"}]`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(payload))
			var ferr domain.FormatError
			if !errors.As(err, &ferr) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if ferr.Position != 2 {
				t.Fatalf("expected position 2, got %d (%v)", ferr.Position, err)
			}
			if !strings.HasPrefix(err.Error(), "invalid exhibit at position 2") {
				t.Fatalf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestDecodeDefaultsMissingEnums(t *testing.T) {
	got, err := Decode(strings.NewReader(`[{"id":"a","serialNumber":"001-01-2025","dateReceived":"2025-01-01T10:00:00Z"}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got[0].Remarks != domain.RemarksUnexploited || got[0].CollectionStatus != domain.StatusNotCollected {
		t.Fatalf("expected defaults, got %+v", got[0])
	}
	if got[0].DateReceived.String() != "2025-01-01" {
		t.Fatalf("expected timestamp to collapse to a date, got %s", got[0].DateReceived)
	}
}

func TestDecodeEmptyArray(t *testing.T) {
	got, err := Decode(strings.NewReader("  []  "))
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v (%v)", got, err)
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename(time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)); got != "exhibits_2025-03-14.json" {
		t.Fatalf("unexpected filename %s", got)
	}
}

func TestLimitReader(t *testing.T) {
	payload := `[{"id":"a","serialNumber":"001-03-2025","dateReceived":"2025-03-01"}]`

	got, err := Decode(LimitReader(strings.NewReader(payload), int64(len(payload))))
	if err != nil || len(got) != 1 {
		t.Fatalf("expected a payload at the limit to decode, got %v (%v)", got, err)
	}

	_, err = Decode(LimitReader(strings.NewReader(payload), int64(len(payload))-1))
	var tooLarge TooLargeError
	if !errors.As(err, &tooLarge) || tooLarge.Limit != int64(len(payload))-1 {
		t.Fatalf("expected TooLargeError, got %v", err)
	}

	if r := strings.NewReader(payload); LimitReader(r, 0) != r {
		t.Fatalf("expected a non-positive limit to return the reader unchanged")
	}
}
