package httpapi

import "time"

const defaultMaxBodyBytes int64 = 25 << 20

// maxBodyBytes caps request bodies. Transcription uploads share the limit.
var maxBodyBytes = defaultMaxBodyBytes

// SetMaxBodyBytes sets the request body limit. Non-positive values restore the default.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// keepAliveInterval is how long an event stream may stay idle before a comment is sent.
var keepAliveInterval = 15 * time.Second

// SetKeepAliveInterval overrides the event stream keep-alive period (0 restores 15s).
func SetKeepAliveInterval(d time.Duration) {
	if d <= 0 {
		d = 15 * time.Second
	}
	keepAliveInterval = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
