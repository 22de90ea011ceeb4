package domain

import (
	"bytes"
	"fmt"
	"strconv"
)

// Amount is a monetary value in whole currency units. The backend serializes
// its zero-decimal DecimalFields as JSON strings ("150000"), so Amount accepts
// both string and numeric encodings and always marshals back as a number.
type Amount int64

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(a), 10)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	// Integer fast path; fall back to float for "150000.00" style values.
	if v, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*a = Amount(v)
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", data, err)
	}
	*a = Amount(int64(f))
	return nil
}
