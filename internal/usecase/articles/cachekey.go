package articles

import (
	"encoding/json"

	"monitorss-articles/internal/domain/entity"
)

// cacheKeyPrefix namespaces cached article payloads in the shared store.
const cacheKeyPrefix = "articles:com:"

// cacheKeyData is the canonical fingerprint a cache key derives from.
// encoding/json marshals struct fields in declaration order, which gives
// the stable key order the fingerprint relies on; empty containers are
// dropped so "absent" and "empty" fingerprint identically.
type cacheKeyData struct {
	URL     string          `json:"url"`
	Options cacheKeyOptions `json:"options"`
}

type cacheKeyOptions struct {
	FormatOptions          *entity.FormatOptions         `json:"formatOptions,omitempty"`
	ExternalFeedProperties []entity.ExternalFeedProperty `json:"externalFeedProperties,omitempty"`
	RequestLookupDetails   *cacheKeyLookup               `json:"requestLookupDetails,omitempty"`
}

// cacheKeyLookup reduces request lookup details to only their key.
type cacheKeyLookup struct {
	Key string `json:"key"`
}

// cacheKey derives the deterministic cache key for a url plus fetch
// options.
func cacheKey(url string, opts FetchArticlesOptions) string {
	data := cacheKeyData{URL: url}
	if !opts.FormatOptions.IsZero() {
		data.Options.FormatOptions = opts.FormatOptions
	}
	if len(opts.ExternalFeedProperties) > 0 {
		data.Options.ExternalFeedProperties = opts.ExternalFeedProperties
	}
	if opts.RequestLookupDetails != nil && opts.RequestLookupDetails.Key != "" {
		data.Options.RequestLookupDetails = &cacheKeyLookup{Key: opts.RequestLookupDetails.Key}
	}

	// Marshaling a struct of primitives cannot fail.
	serialized, _ := json.Marshal(data)
	return cacheKeyPrefix + HashValue(string(serialized))
}
