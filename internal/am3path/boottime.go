package am3path

import (
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// BootTimeLayout matches spec's catalog timestamp format:
// "YYYY-MM-DD HH:MM:SS[.ffffff]".
const BootTimeLayout = "2006-01-02 15:04:05.000000"

// CurrentBootTime returns the current host's boot instant, formatted the way
// the catalog document persists it. gopsutil/v3/host.BootTime is the same
// family of helper gravwell-gravwell uses for host introspection.
func CurrentBootTime() (string, error) {
	secs, err := host.BootTime()
	if err != nil {
		return "", err
	}
	t := time.Unix(int64(secs), 0).UTC()
	return t.Format(BootTimeLayout), nil
}
