package instance

import "os"

// ID identifies the running process in logs. WORKER_ID wins, then the
// platform dyno name, then the hostname.
func ID() string {
	for _, key := range []string{"WORKER_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
