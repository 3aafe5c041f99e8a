package rwgps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"velo-routes-builder/internal/domain"
	"velo-routes-builder/internal/ports"
)

const (
	milesToKm = 1.60934
	feetToM   = 0.3048

	// A scraped distance above this value is assumed to be meters, not km.
	metersThreshold = 500
)

// Ordered pattern lists, first match wins. A field with no matching pattern
// is simply left absent; the normalizer applies defaults or rejects.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<title>([^<]+?)\s*\|\s*Ride with GPS</title>`),
	regexp.MustCompile(`(?i)<h1[^>]*>([^<]+)</h1>`),
	regexp.MustCompile(`(?i)"name"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)class="route-title"[^>]*>([^<]+)`),
}

var descriptionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<meta name="description" content="([^"]+)"`),
	regexp.MustCompile(`(?i)"description"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)class="description"[^>]*>([^<]+)`),
}

var titleSuffix = regexp.MustCompile(`(?i)\s*\|\s*Ride with GPS$`)

// A numeric extraction pattern plus the factor converting its unit to the
// canonical one (km for distance, m for elevation).
type numericPattern struct {
	re     *regexp.Regexp
	factor float64
}

var distancePatterns = []numericPattern{
	{regexp.MustCompile(`(?i)distance["\s]*:\s*([0-9.]+)`), 1},
	{regexp.MustCompile(`(?i)([0-9.]+)\s*km`), 1},
	{regexp.MustCompile(`(?i)([0-9.]+)\s*miles`), milesToKm},
	{regexp.MustCompile(`(?i)"distance"\s*:\s*([0-9.]+)`), 1},
	{regexp.MustCompile(`(?i)data-distance="([0-9.]+)"`), 1},
}

var elevationPatterns = []numericPattern{
	{regexp.MustCompile(`(?i)elevation[_\s]*gain["\s]*:\s*([0-9.]+)`), 1},
	{regexp.MustCompile(`(?i)([0-9.]+)\s*m\s*elevation`), 1},
	{regexp.MustCompile(`(?i)([0-9,]+)\s*ft\s*elevation`), feetToM},
	{regexp.MustCompile(`(?i)"elevation_gain"\s*:\s*([0-9.]+)`), 1},
	{regexp.MustCompile(`(?i)data-elevation-gain="([0-9.]+)"`), 1},
}

// fetchFromPage scrapes the public route page. It is the fallback when the
// API attempt fails or yields nothing usable.
func (c *Client) fetchFromPage(ctx context.Context, id string) (*ports.RawRouteData, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	url := c.routeURL(id)

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	})
	if err != nil {
		return nil, fmt.Errorf("page request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}

	return c.parsePage(string(body), id), nil
}

func (c *Client) parsePage(html, id string) *ports.RawRouteData {
	raw := &ports.RawRouteData{
		Image:      c.thumbURL(id),
		ImageLarge: c.fullImageURL(id),
	}

	if title, ok := firstMatch(titlePatterns, html); ok {
		raw.Title = titleSuffix.ReplaceAllString(title, "")
	}
	if desc, ok := firstMatch(descriptionPatterns, html); ok {
		raw.Description = desc
	}

	raw.Type = domain.ClassifySurface(pageText(html))

	if v, ok := firstNumericMatch(distancePatterns, html); ok {
		if v > metersThreshold {
			v /= 1000
		}
		raw.DistanceKm = v
	}
	if v, ok := firstNumericMatch(elevationPatterns, html); ok {
		raw.ElevationM = v
	}

	return raw
}

func firstMatch(patterns []*regexp.Regexp, html string) (string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		if v := strings.TrimSpace(m[1]); v != "" {
			return v, true
		}
	}
	return "", false
}

// firstNumericMatch applies the pattern list in order and converts the first
// matched value with that pattern's unit factor.
func firstNumericMatch(patterns []numericPattern, html string) (float64, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		return v * p.factor, true
	}
	return 0, false
}

// pageText extracts the page's visible text for surface classification.
// A document that fails to parse falls back to the raw markup, which still
// contains the keywords the classifier looks for.
func pageText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return doc.Text()
}
