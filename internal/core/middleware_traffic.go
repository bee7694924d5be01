package core

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/klauspost/compress/gzip"
)

// minCompressSize is the minimum response body size, in bytes, before gzip
// compression kicks in. Small payloads (banner, insert acknowledgements)
// cost more to compress than to send raw.
const minCompressSize = 1400

// CompressionMiddleware transparently gzip-compresses response bodies for
// clients that send Accept-Encoding: gzip. Responses below minCompressSize
// are passed through unmodified. Forecast and meteogram listings are highly
// repetitive JSON, so compression typically shrinks them by an order of
// magnitude.
func CompressionMiddleware() func(http.Handler) http.Handler {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(minCompressSize),
		gzhttp.CompressionLevel(gzip.DefaultCompression),
	)
	if err != nil {
		// The options above are static; an error here means a programming
		// mistake, not a runtime condition.
		panic(fmt.Sprintf("core: invalid compression configuration: %v", err))
	}
	return func(next http.Handler) http.Handler {
		return wrapper(next)
	}
}
