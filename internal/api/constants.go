package api

// API limits and constants.
const (
	// MaxQueryLength bounds free-text queries.
	MaxQueryLength = 200

	// MaxReportBodySize bounds bug report bodies, snapshot included (1 MB).
	MaxReportBodySize = 1 << 20
)

// Cache-Control header values.
const (
	CacheFiveMinutes = "public, max-age=300"
	CacheOneDay      = "public, max-age=86400"
	CacheNoStore     = "no-store"
)
