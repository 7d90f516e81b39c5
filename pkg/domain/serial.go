package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MaxSerialSequence is the highest sequence a three digit serial can carry.
const MaxSerialSequence = 999

var serialPattern = regexp.MustCompile(`^(\d{3})-(\d{2})-(\d{4})$`)

// Serial is a parsed SSS-MM-YYYY serial number.
type Serial struct {
	Sequence int
	Month    int
	Year     int
}

// ParseSerial decodes a serial number. Values not matching SSS-MM-YYYY report false.
func ParseSerial(value string) (Serial, bool) {
	m := serialPattern.FindStringSubmatch(value)
	if m == nil {
		return Serial{}, false
	}
	seq, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return Serial{Sequence: seq, Month: month, Year: year}, true
}

func (s Serial) String() string {
	return fmt.Sprintf("%03d-%02d-%04d", s.Sequence, s.Month, s.Year)
}

// NextSerial allocates the next serial in the (month, year) scope of now.
// Malformed serials in existing are ignored.
func NextSerial(existing []Exhibit, now time.Time) (string, error) {
	month, year := int(now.Month()), now.Year()
	highest := 0
	for i := range existing {
		s, ok := ParseSerial(existing[i].SerialNumber)
		if !ok || s.Month != month || s.Year != year {
			continue
		}
		if s.Sequence > highest {
			highest = s.Sequence
		}
	}
	if highest >= MaxSerialSequence {
		return "", SerialExhaustedError{Month: month, Year: year}
	}
	return Serial{Sequence: highest + 1, Month: month, Year: year}.String(), nil
}
