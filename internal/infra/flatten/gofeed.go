// Package flatten implements the article flattener: it turns a parsed
// feed item into the string-keyed mapping the articles core works with,
// and wires up deferred content injection for feeds configured with
// external properties.
package flatten

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"monitorss-articles/internal/domain/entity"
	"monitorss-articles/internal/usecase/articles"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

// defaultDateLayout renders date placeholders when a feed configures no
// format of its own.
const defaultDateLayout = time.RFC1123

// PageFetcher retrieves an article page for content injection.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// GofeedFlattener flattens gofeed items. A nil page fetcher disables
// content injection entirely.
type GofeedFlattener struct {
	pages PageFetcher
}

// NewGofeedFlattener creates a flattener. pages may be nil to disable
// content injection.
func NewGofeedFlattener(pages PageFetcher) *GofeedFlattener {
	return &GofeedFlattener{pages: pages}
}

// Flatten maps an item's fields to string values and, when external feed
// properties are configured, attaches the injection closure that fills
// in fetched page content.
func (f *GofeedFlattener) Flatten(item *gofeed.Item, opts articles.FlattenOptions) (articles.FlattenResult, error) {
	fields := map[string]string{}

	setField(fields, "title", item.Title)
	setField(fields, "link", item.Link)
	setField(fields, "guid", item.GUID)
	setField(fields, "pubdate", item.Published)
	setField(fields, "description", item.Description)
	setField(fields, "summary", item.Description)
	setField(fields, "content", item.Content)
	if item.Author != nil {
		setField(fields, "author", item.Author.Name)
	}
	if len(item.Categories) > 0 {
		setField(fields, "categories", strings.Join(item.Categories, ","))
	}
	if len(item.Enclosures) > 0 {
		enc := item.Enclosures[0]
		setField(fields, "enclosure:url", enc.URL)
		setField(fields, "enclosure:type", enc.Type)
		setField(fields, "enclosure:length", enc.Length)
	}
	if item.Image != nil {
		setField(fields, "image:url", item.Image.URL)
		setField(fields, "image:title", item.Image.Title)
	}
	if formatted := formatItemDate(item, opts.FormatOptions); formatted != "" {
		fields["date"] = formatted
	}
	if opts.UseParserRules {
		flattenExtensions(fields, item)
	}

	result := articles.FlattenResult{Fields: fields}
	props := injectableProperties(opts.ExternalFeedProperties, fields)
	if f.pages != nil && len(props) > 0 {
		result.HasContentInjection = true
		result.Inject = f.injectClosure(props)
	}
	return result, nil
}

func setField(fields map[string]string, key, value string) {
	if value == "" {
		return
	}
	fields[key] = value
}

// formatItemDate renders the item's published date per the feed's format
// options.
func formatItemDate(item *gofeed.Item, opts *entity.FormatOptions) string {
	t := item.PublishedParsed
	if t == nil && item.Published != "" {
		if parsed, err := dateparse.ParseAny(item.Published); err == nil {
			t = &parsed
		}
	}
	if t == nil {
		return ""
	}

	layout := defaultDateLayout
	loc := time.UTC
	if opts != nil {
		if opts.DateFormat != "" {
			layout = opts.DateFormat
		}
		if opts.DateTimezone != "" {
			if parsed, err := time.LoadLocation(opts.DateTimezone); err == nil {
				loc = parsed
			}
		}
	}
	return t.In(loc).Format(layout)
}

// flattenExtensions lifts extension element values (dc, media, and
// friends) into the mapping under "ext::prefix:name" keys.
func flattenExtensions(fields map[string]string, item *gofeed.Item) {
	for prefix, elements := range item.Extensions {
		for name, values := range elements {
			if len(values) == 0 || values[0].Value == "" {
				continue
			}
			fields["ext::"+prefix+":"+name] = values[0].Value
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		setField(fields, "dc:creator", item.DublinCoreExt.Creator[0])
	}
}

// injectableProperties returns the properties whose source field carries
// a usable page URL for this item.
func injectableProperties(props []entity.ExternalFeedProperty, fields map[string]string) []entity.ExternalFeedProperty {
	var usable []entity.ExternalFeedProperty
	for _, prop := range props {
		if prop.SourceField == "" {
			continue
		}
		if fields[prop.SourceField] != "" {
			usable = append(usable, prop)
		}
	}
	return usable
}

// injectClosure builds the deferred enrichment closure: fetch each
// property's source page once and extract either the configured CSS
// selector or the readable article text.
func (f *GofeedFlattener) injectClosure(props []entity.ExternalFeedProperty) func(ctx context.Context, fields map[string]string) error {
	pages := f.pages
	return func(ctx context.Context, fields map[string]string) error {
		fetched := map[string]string{}
		for _, prop := range props {
			pageURL := fields[prop.SourceField]
			if pageURL == "" {
				continue
			}
			body, ok := fetched[pageURL]
			if !ok {
				var err error
				body, err = pages.FetchPage(ctx, pageURL)
				if err != nil {
					return fmt.Errorf("fetch external property page: %w", err)
				}
				fetched[pageURL] = body
			}

			extracted, err := extractContent(body, pageURL, prop.CSSSelector)
			if err != nil {
				return err
			}
			if extracted != "" {
				fields[externalFieldKey(prop)] = extracted
			}
		}
		return nil
	}
}

// externalFieldKey names the flattened field an external property fills.
func externalFieldKey(prop entity.ExternalFeedProperty) string {
	label := prop.Label
	if label == "" {
		label = prop.ID
	}
	return "external::" + label
}

// extractContent pulls the selector's text out of the page, or the
// readable article text when no selector is configured.
func extractContent(body, pageURL, selector string) (string, error) {
	if selector != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("parse external property page: %w", err)
		}
		return strings.TrimSpace(doc.Find(selector).First().Text()), nil
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	article, err := readability.FromReader(strings.NewReader(body), parsed)
	if err != nil {
		return "", fmt.Errorf("extract readable content: %w", err)
	}
	return strings.TrimSpace(article.TextContent), nil
}
