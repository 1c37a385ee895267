package service

import "time"

// now matches the UTC timestamps the repositories write.
func now() time.Time {
	return time.Now().UTC()
}
