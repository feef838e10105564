package common

import "time"

// ParseDateTime tries the date/time layouts clients commonly send.
func ParseDateTime(str string) (time.Time, error) {
	var lasterror error
	tryFormats := []string{time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05.000",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"02/01/2006",
		"02-01-2006",
		"2006-01-02"}

	for _, f := range tryFormats {
		tx, err := time.Parse(f, str)
		if err == nil {
			return tx, nil
		} else {
			lasterror = err
		}
	}

	return time.Time{}, lasterror
}

// ToDateString normalizes a client date to YYYY-MM-DD. Unparseable input is
// returned untouched so the database decides.
func ToDateString(str string) string {
	dt, err := ParseDateTime(str)
	if err != nil {
		return str
	}
	return dt.Format("2006-01-02")
}

func ToJSONDT(dt time.Time) string {
	return dt.Format(time.RFC3339)
}
