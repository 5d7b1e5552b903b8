package entity

// Feed is one polled user feed: its operator-assigned id, URL, and the
// per-feed options that drive parsing, comparison dedup, and delivery.
// All persisted dedup state is scoped by ID.
type Feed struct {
	ID                     string                 `yaml:"id"`
	URL                    string                 `yaml:"url"`
	Name                   string                 `yaml:"name"`
	BlockingComparisons    []string               `yaml:"blocking_comparisons"`
	PassingComparisons     []string               `yaml:"passing_comparisons"`
	FormatOptions          *FormatOptions         `yaml:"format_options"`
	ExternalFeedProperties []ExternalFeedProperty `yaml:"external_properties"`
	DateChecks             *DateChecks            `yaml:"date_checks"`
}

// FormatOptions controls how item values are rendered into flattened
// fields, chiefly date formatting.
type FormatOptions struct {
	DateFormat   string `json:"dateFormat,omitempty" yaml:"date_format"`
	DateTimezone string `json:"dateTimezone,omitempty" yaml:"date_timezone"`
	DateLocale   string `json:"dateLocale,omitempty" yaml:"date_locale"`
}

// IsZero reports whether every option is unset. Zero options are dropped
// from cache key material.
func (o *FormatOptions) IsZero() bool {
	return o == nil || (o.DateFormat == "" && o.DateTimezone == "" && o.DateLocale == "")
}

// ExternalFeedProperty configures content injection for a feed: the
// flattened field holding the page URL to fetch, and the CSS selector to
// extract from the fetched page. The extracted text lands in the
// flattened map under "external::<label>".
type ExternalFeedProperty struct {
	ID          string `json:"id" yaml:"id"`
	SourceField string `json:"sourceField" yaml:"source_field"`
	CSSSelector string `json:"cssSelector,omitempty" yaml:"css_selector"`
	Label       string `json:"label" yaml:"label"`
}

// RequestLookupDetails is out-of-band keying info a fetcher may use
// instead of the raw URL, e.g. a hashed credentials scope. Only Key
// participates in cache key derivation.
type RequestLookupDetails struct {
	Key string `json:"key" yaml:"key"`
	URL string `json:"-" yaml:"url"`
}

// DateChecks filters delivery by article age.
type DateChecks struct {
	// OldArticleDateDiffMsThreshold drops articles older than this many
	// milliseconds. Zero disables the filter.
	OldArticleDateDiffMsThreshold int64 `yaml:"old_article_date_diff_ms_threshold"`

	// DatePlaceholderReferences names the raw date fields consulted, in
	// order. Defaults to ["date", "pubdate"].
	DatePlaceholderReferences []string `yaml:"date_placeholder_references"`
}
