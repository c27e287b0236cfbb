package service

import "time"

// utcNow returns the current UTC time at the precision PostgreSQL stores.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
