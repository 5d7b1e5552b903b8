package articles

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractRSSFromHTML looks for an RSS alternate link in an HTML page and
// returns its href, or "" when the body is not an HTML document or
// carries no feed link.
func extractRSSFromHTML(body string) string {
	if !looksLikeHTML(body) {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	href, _ := doc.Find(`link[type="application/rss+xml"]`).First().Attr("href")
	return strings.TrimSpace(href)
}

func looksLikeHTML(body string) bool {
	head := strings.ToLower(body)
	if len(head) > 1024 {
		head = head[:1024]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
