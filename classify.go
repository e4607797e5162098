package failover

import (
	"strings"
)

// Error text markers signaling that the connected node rejected a write
// because it is running as a replica. MySQL reports both the read_only and
// super_read_only cases with the originating server option in the message.
var defaultReadOnlyMarkers = []string{
	"--read-only",
	"--super-read-only",
}

// Error text markers signaling that the current socket or session is
// unusable and a fresh connection is required.
var connectionErrorMarkers = []string{
	"client is not connected",
	"Lost connection to MySQL server",
	"Can't connect to MySQL",
	"Server shutdown in progress",
}

// IsReadOnlyError reports whether err looks like a write rejected by a
// replica node. Classification is substring matching against known server
// error text: the protocol exposes no structured code that reliably
// distinguishes "failover in progress" across server versions, so this is
// best effort and unmatched text is never an error.
func IsReadOnlyError(err error) bool {
	return matchesAny(err, defaultReadOnlyMarkers)
}

// IsTransientConnectionError reports whether err indicates the connection
// itself is broken and worth re-establishing.
func IsTransientConnectionError(err error) bool {
	return matchesAny(err, connectionErrorMarkers)
}

func matchesAny(err error, markers []string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
