package crawler

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mshayan3/vlrscrape/internal/artifact"
)

// MainEventStage is the synthetic stage used when an event page lists no stages.
const MainEventStage = "Main_Event"

const unknownEvent = "Unknown_Event"

var (
	matchPath = regexp.MustCompile(`^/(\d+)(/.*)?$`)
	monthDay  = regexp.MustCompile(`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d+`)
	yearToken = regexp.MustCompile(`\b(20\d{2})\b`)
)

// EventLink is one entry of an events listing page.
type EventLink struct {
	Title string
	URL   string
}

// Stage is one stage of an event (group stage, playoffs, ...).
type Stage struct {
	Name string
	URL  string
}

// EventPage is what the crawler needs from an event's landing page.
type EventPage struct {
	Name   string
	Folder string
	Year   int
	Stages []Stage
}

func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// ParseEventListing extracts event links from one listing page.
func ParseEventListing(doc *goquery.Document, base *url.URL) []EventLink {
	var out []EventLink
	seen := make(map[string]bool)
	doc.Find("a.event-item").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, ok := resolve(base, href)
		if !ok || seen[u] {
			return
		}
		seen[u] = true
		title := strings.Join(strings.Fields(a.Find(".event-item-title").First().Text()), " ")
		out = append(out, EventLink{Title: title, URL: u})
	})
	return out
}

// ParseEventPage reads the event name, year and stages. now supplies the year when the
// page carries none. An event without stages gets the single Main_Event stage at eventURL.
func ParseEventPage(doc *goquery.Document, base *url.URL, eventURL string, now time.Time) EventPage {
	name := strings.Join(strings.Fields(doc.Find(".wf-title").First().Text()), " ")
	folder := artifact.CleanName(name)
	if folder == "" {
		folder = unknownEvent
	}
	page := EventPage{Name: name, Folder: folder, Year: parseYear(doc, now)}
	if page.Name == "" {
		page.Name = folder
	}

	doc.Find(".wf-subnav-item").Each(func(_ int, item *goquery.Selection) {
		title := item.Find(".wf-subnav-item-title").First()
		if title.Length() == 0 {
			return
		}
		href, _ := item.Attr("href")
		u, ok := resolve(base, href)
		if !ok {
			return
		}
		stageName := artifact.CleanName(title.Text())
		if stageName == "" {
			return
		}
		page.Stages = append(page.Stages, Stage{Name: stageName, URL: u})
	})
	if len(page.Stages) == 0 {
		page.Stages = []Stage{{Name: MainEventStage, URL: eventURL}}
	}
	return page
}

func parseYear(doc *goquery.Document, now time.Time) int {
	year := 0
	doc.Find(".wf-subnav-item .ge-text-light").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !monthDay.MatchString(text) {
			return true
		}
		if m := yearToken.FindStringSubmatch(text); m != nil {
			year, _ = strconv.Atoi(m[1])
			return false
		}
		return true
	})
	if year != 0 {
		return year
	}
	if m := yearToken.FindStringSubmatch(doc.Find(".wf-title").First().Text()); m != nil {
		year, _ = strconv.Atoi(m[1])
		return year
	}
	return now.Year()
}

// MatchesURL returns the match listing URL of a stage.
func MatchesURL(stageURL string) string {
	if strings.Contains(stageURL, "/matches") {
		return stageURL
	}
	if strings.HasSuffix(stageURL, "/") {
		return stageURL + "matches"
	}
	return stageURL + "/matches"
}

// ParseMatchListing returns the same-origin match URLs of a listing in page order,
// de-duplicated by numeric match id.
func ParseMatchListing(doc *goquery.Document, base *url.URL) []string {
	var out []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs, ok := resolve(base, href)
		if !ok {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || !strings.EqualFold(u.Host, base.Host) {
			return
		}
		m := matchPath.FindStringSubmatch(u.Path)
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true
		out = append(out, abs)
	})
	return out
}

// MatchID returns the numeric id of a vlr.gg match URL, or "" when the path has none.
func MatchID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if m := matchPath.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return ""
}

// ListingURL returns the events listing URL for page n.
func ListingURL(base *url.URL, eventsPath string, n int) string {
	u, ok := resolve(base, eventsPath)
	if !ok {
		u = base.String()
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "page=" + strconv.Itoa(n)
}
