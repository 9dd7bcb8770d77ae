package buildinfo

import "time"

// Set via -ldflags at build time
var (
	BuildTime  string // when the binary was compiled
	CommitTime string // last git commit time
	CommitHash string // short git commit hash
)

var started = time.Now().UTC()

// StartTime is recorded when the process starts
var StartTime = started.Format(time.RFC3339)

// Uptime reports how long the process has been running, to the second
func Uptime() time.Duration {
	return time.Since(started).Truncate(time.Second)
}
