package ragchat

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Time wraps time.Time so timestamps round-trip through sqlite as
// RFC3339Nano strings regardless of driver settings.
type Time struct {
	T time.Time
}

func (t Time) IsZero() bool {
	return t.T.IsZero()
}

func (t Time) Equal(other Time) bool {
	return t.T.Equal(other.T)
}

func (t Time) Before(other Time) bool {
	return t.T.Before(other.T)
}

func (t Time) Value() (driver.Value, error) {
	return t.T.UTC().Format(time.RFC3339Nano), nil
}

func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.T = time.Time{}
		return nil
	case time.Time:
		t.T = v.UTC()
		return nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("error parsing time %q: %w", v, err)
		}
		t.T = parsed.UTC()
		return nil
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("unsupported time type %T", src)
	}
}
