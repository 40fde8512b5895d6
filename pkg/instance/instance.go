// Package instance names the running till process.
package instance

import (
	"os"
	"sync"
)

const envInstanceID = "VEGGIEPOS_INSTANCE_ID"

// GetID names this till process in logs and cron lock ownership. It falls
// back to the hostname, then to "till-0", and is resolved once per process.
var GetID = sync.OnceValue(resolveID)

func resolveID() string {
	if id := os.Getenv(envInstanceID); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "till-0"
}
