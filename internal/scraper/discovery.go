package scraper

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/bwalsh/vt-nutrition/internal/logger"
	"github.com/bwalsh/vt-nutrition/internal/menu"
)

var (
	hallLinkPattern    = regexp.MustCompile(`MenuAtLocation\.aspx\?locationNum=`)
	locationNumPattern = regexp.MustCompile(`locationNum=([^&]+)`)
)

// FallbackHalls returns the static list of known dining halls used when the
// directory page cannot be fetched or yields nothing.
func FallbackHalls() []menu.Hall {
	return []menu.Hall{
		{Name: "D2 at Dietrick Hall", LocationNum: "15", URL: BaseURL + "/menus/MenuAtLocation.aspx?locationNum=15&naFlag=1"},
		{Name: "Food Court / Hokie Grill at Owens", LocationNum: "09", URL: BaseURL + "/menus/MenuAtLocation.aspx?locationNum=09&naFlag=1"},
		{Name: "Turner Place at Lavery Hall", LocationNum: "14", URL: BaseURL + "/menus/MenuAtLocation.aspx?locationNum=14&naFlag=1"},
		{Name: "West End at Cochrane Hall", LocationNum: "16", URL: BaseURL + "/menus/MenuAtLocation.aspx?locationNum=16&naFlag=1"},
	}
}

// DiscoverHalls enumerates dining halls from the menu directory page, in
// document order. Fetch failure or an empty result degrades to the static
// fallback list.
func (s *Scraper) DiscoverHalls() []menu.Hall {
	body, err := s.client.Get(s.menuBase + "/")
	if err != nil {
		logger.Warn("failed to fetch menu directory, using fallback halls", logger.Fields{"error": err.Error()})
		return FallbackHalls()
	}

	halls, err := s.parseHalls(bytes.NewReader(body))
	if err != nil {
		logger.Warn("failed to parse menu directory, using fallback halls", logger.Fields{"error": err.Error()})
		return FallbackHalls()
	}

	if len(halls) == 0 {
		logger.Warn("menu directory yielded no halls, using fallback halls", nil)
		return FallbackHalls()
	}

	return halls
}

// parseHalls extracts hall entries from the directory page HTML. Anchors
// missing either a title or an extractable location number are skipped.
func (s *Scraper) parseHalls(r io.Reader) ([]menu.Hall, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	halls := make([]menu.Hall, 0)

	doc.Find("a").Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || !hallLinkPattern.MatchString(href) {
			return
		}

		title := strings.TrimSpace(sel.AttrOr("title", ""))
		if title == "" {
			return
		}

		match := locationNumPattern.FindStringSubmatch(href)
		if match == nil {
			return
		}

		halls = append(halls, menu.Hall{
			Name:        title,
			LocationNum: match[1],
			URL:         s.baseURL + "/menus/" + href,
		})
	})

	return halls, nil
}
