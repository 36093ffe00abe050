package crawler

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vlrBase, _ = url.Parse("https://www.vlr.gg")

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

func TestParseEventListing(t *testing.T) {
	t.Parallel()

	d := doc(t, `<div>
<a class="event-item" href="/event/2097/champions-2024"><div class="event-item-title">
  Champions 2024 </div></a>
<a class="event-item" href="/event/2097/champions-2024"><div class="event-item-title">dup</div></a>
<a class="event-item" href="/event/1999/masters"><div class="event-item-title">Masters</div></a>
<a class="other" href="/event/1/x">nope</a>
</div>`)
	assert.Equal(t, []EventLink{
		{Title: "Champions 2024", URL: "https://www.vlr.gg/event/2097/champions-2024"},
		{Title: "Masters", URL: "https://www.vlr.gg/event/1999/masters"},
	}, ParseEventListing(d, vlrBase))
}

func TestParseEventPage(t *testing.T) {
	t.Parallel()

	d := doc(t, `<h1 class="wf-title">Champions Tour 2024: Champions Seoul</h1>
<div class="wf-subnav">
  <a class="wf-subnav-item" href="/event/2097/champions-2024/group-stage">
    <div class="wf-subnav-item-title">Group Stage</div><div class="ge-text-light">Aug 1–Aug 11, 2024</div>
  </a>
  <a class="wf-subnav-item" href="/event/2097/champions-2024/playoffs">
    <div class="wf-subnav-item-title">Playoffs</div>
  </a>
  <a class="wf-subnav-item" href="/event/2097/champions-2024/stats">Stats</a>
</div>`)
	page := ParseEventPage(d, vlrBase, "https://www.vlr.gg/event/2097", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Champions Tour 2024: Champions Seoul", page.Name)
	assert.Equal(t, "Champions_Tour_2024-_Champions_Seoul", page.Folder)
	assert.Equal(t, 2024, page.Year)
	assert.Equal(t, []Stage{
		{Name: "Group_Stage", URL: "https://www.vlr.gg/event/2097/champions-2024/group-stage"},
		{Name: "Playoffs", URL: "https://www.vlr.gg/event/2097/champions-2024/playoffs"},
	}, page.Stages)
}

func TestParseEventPageFallbacks(t *testing.T) {
	t.Parallel()

	now := time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC)

	titled := ParseEventPage(doc(t, `<h1 class="wf-title">Masters 2023</h1>`), vlrBase, "https://www.vlr.gg/event/9", now)
	assert.Equal(t, 2023, titled.Year)
	assert.Equal(t, []Stage{{Name: MainEventStage, URL: "https://www.vlr.gg/event/9"}}, titled.Stages)

	bare := ParseEventPage(doc(t, `<div class="wf-subnav-item"><span class="ge-text-light">2022</span></div>`), vlrBase, "u", now)
	assert.Equal(t, 2031, bare.Year)
	assert.Equal(t, "Unknown_Event", bare.Folder)
}

func TestMatchesURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.vlr.gg/event/1/x/matches", MatchesURL("https://www.vlr.gg/event/1/x"))
	assert.Equal(t, "https://www.vlr.gg/event/1/x/matches", MatchesURL("https://www.vlr.gg/event/1/x/"))
	assert.Equal(t, "https://www.vlr.gg/event/matches/1/?series_id=all", MatchesURL("https://www.vlr.gg/event/matches/1/?series_id=all"))
}

func TestParseMatchListing(t *testing.T) {
	t.Parallel()

	d := doc(t, `<a href="/353/fnc-vs-nrg">m</a>
<a href="/event/1">event</a>
<a href="/353/fnc-vs-nrg/?game=all">again</a>
<a href="/354">bare</a>
<a href="https://www.vlr.gg/355/x">absolute</a>
<a href="https://www.vlr.gg/353/fnc-vs-nrg">absolute duplicate</a>
<a href="https://example.com/356/y">elsewhere</a>
<a href="//cdn.vlr.gg/357/img">cdn</a>
<a href="/team/2/fnatic">team</a>`)
	assert.Equal(t, []string{
		"https://www.vlr.gg/353/fnc-vs-nrg",
		"https://www.vlr.gg/354",
		"https://www.vlr.gg/355/x",
	}, ParseMatchListing(d, vlrBase))
}

func TestMatchIDAndListingURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "353", MatchID("https://www.vlr.gg/353/fnc-vs-nrg"))
	assert.Equal(t, "", MatchID("https://www.vlr.gg/event/353"))
	assert.Equal(t, "https://www.vlr.gg/events/?tier=60&region=all&page=2", ListingURL(vlrBase, "/events/?tier=60&region=all", 2))
	assert.Equal(t, "https://www.vlr.gg/events?page=1", ListingURL(vlrBase, "/events", 1))
}

func TestVisitTracker(t *testing.T) {
	t.Parallel()

	var v visitTracker
	assert.True(t, v.MarkIfNew("1"))
	assert.False(t, v.MarkIfNew("1"))
	assert.False(t, v.MarkIfNew(""))
}
