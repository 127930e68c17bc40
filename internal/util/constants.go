package util

// Cache-Control values for frame documents.
const (
	CacheFrameOK    = "public, max-age=3600, s-maxage=21600, stale-while-revalidate=600"
	CacheFrameEmpty = "public, max-age=60, s-maxage=60"
	CacheHostPage   = "public, max-age=300, s-maxage=600"
	CacheNoStore    = "no-store"
)
