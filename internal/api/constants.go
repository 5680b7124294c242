package api

// API limits and constants.
const (
	// MaxUploadSize caps the body of an icon upload request (10 MB).
	MaxUploadSize = 10 << 20

	// maxMemory is the part of a multipart form kept in memory before spilling to disk.
	maxMemory = 1 << 20
)

// Cache-Control header values.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheNoStore = "no-cache"
)
