package scraper

import (
	"strings"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/pkg/util"

	"github.com/PuerkitoBio/goquery"
)

const (
	SourceMoneyControl = "MoneyControl"

	categoryNews       = "News"
	categoryMarketNews = "Market News"

	marketContainerSel = "article, .article, .market-news, .market_news, .marketnews"
	marketTitleSel     = "h2 a, h3 a, .title a, .headline a, .news-title a"
	marketCategorySel  = ".category, .cat, .news-category, .section, .tag"
	marketTimeSel      = ".datetime, .date, .time, .timestamp, .news-time"
)

var (
	globalMarkers = []string{"GIFT NIFTY", "Dow Jones", "Nasdaq", "DAX"}
	indianMarkers = []string{"NIFTY", "SENSEX", "INDIA VIX"}
	indianExclude = []string{"Sector", "Performance"}
)

// ParseIndices extracts index rows from the markets overview table.
// Rows with a blank name or non-numeric cells are dropped; the first row wins for a repeated name.
func ParseIndices(doc *goquery.Document) *models.IndexSet {
	set := &models.IndexSet{Indian: []models.MarketIndex{}, Global: []models.MarketIndex{}}
	seen := make(map[string]struct{})

	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		name := util.CollapseSpaces(cells.Eq(0).Text())
		if name == "" {
			return
		}
		value, ok := util.ParseNumber(cells.Eq(1).Text())
		if !ok {
			return
		}
		change, ok := util.ParseNumber(cells.Eq(2).Text())
		if !ok {
			return
		}
		pct, ok := util.ParseNumber(cells.Eq(3).Text())
		if !ok {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}

		idx := models.MarketIndex{Index: name, Value: value, Change: change, ChangePercent: pct}
		switch {
		case isGlobalIndex(name):
			set.Global = append(set.Global, idx)
		case isIndianIndex(name):
			set.Indian = append(set.Indian, idx)
		}
	})
	return set
}

func isGlobalIndex(name string) bool {
	return util.ContainsAny(name, globalMarkers...)
}

func isIndianIndex(name string) bool {
	return util.ContainsAny(name, indianMarkers...) && !util.ContainsAny(name, indianExclude...)
}

// ParseLatestNews collects news links. Duplicate links keep their first title.
func ParseLatestNews(doc *goquery.Document, baseURL string, now time.Time) []models.NewsArticle {
	out := []models.NewsArticle{}
	seen := make(map[string]struct{})
	ts := util.ISOTime(now)

	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/news/") || strings.Contains(href, "#") {
			return
		}
		title := util.CollapseSpaces(a.Text())
		if title == "" {
			return
		}
		link := AbsoluteURL(baseURL, href)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		out = append(out, models.NewsArticle{
			Title:     title,
			Link:      link,
			Category:  categoryNews,
			Timestamp: ts,
			Source:    SourceMoneyControl,
		})
	})
	return out
}

// ParseMarketNews collects structured market stories, falling back to bare /markets/ links
// when the page has no recognizable story containers.
func ParseMarketNews(doc *goquery.Document, baseURL string, now time.Time) []models.MarketNews {
	out := []models.MarketNews{}

	doc.Find(marketContainerSel).Each(func(_ int, item *goquery.Selection) {
		a := item.Find(marketTitleSel).First()
		title := util.CollapseSpaces(a.Text())
		href, _ := a.Attr("href")
		category := util.CollapseSpaces(item.Find(marketCategorySel).First().Text())
		ts := util.CollapseSpaces(item.Find(marketTimeSel).First().Text())
		if title == "" || href == "" || category == "" || ts == "" {
			return
		}
		out = append(out, models.MarketNews{
			Title:     title,
			Link:      AbsoluteURL(baseURL, href),
			Category:  category,
			Timestamp: ts,
			Source:    SourceMoneyControl,
			Type:      ClassifyMarketNews(category),
		})
	})
	if len(out) > 0 {
		return out
	}

	ts := util.ISOTime(now)
	seen := make(map[string]struct{})
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/markets/") || strings.Contains(href, "#") {
			return
		}
		title := util.CollapseSpaces(a.Text())
		if title == "" {
			return
		}
		link := AbsoluteURL(baseURL, href)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		out = append(out, models.MarketNews{
			Title:     title,
			Link:      link,
			Category:  categoryMarketNews,
			Timestamp: ts,
			Source:    SourceMoneyControl,
			Type:      models.NewsTypeCommentary,
		})
	})
	return out
}

// ClassifyMarketNews maps a category label to a story type.
func ClassifyMarketNews(category string) models.MarketNewsType {
	c := strings.ToLower(category)
	switch {
	case util.ContainsAny(c, "update", "alert"):
		return models.NewsTypeUpdate
	case util.ContainsAny(c, "recommendation", "buy", "sell"):
		return models.NewsTypeRecommendation
	case util.ContainsAny(c, "analysis", "technical"):
		return models.NewsTypeAnalysis
	default:
		return models.NewsTypeCommentary
	}
}

// AbsoluteURL keeps absolute hrefs and prefixes relative ones with baseURL.
func AbsoluteURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}
