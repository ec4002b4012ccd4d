package utils

import (
	"log"
	"strings"
)

// LogEvent emits one structured line tying a module action to the
// request it ran under. Callers pass a short summary, never raw
// payloads or credentials.
func LogEvent(requestID, module, action, message string) {
	rid := strings.TrimSpace(requestID)
	log.Printf("[%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, rid, message)
}
