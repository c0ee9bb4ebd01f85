package generator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/internal/domain/service"
	"MarketMood/pkg/util"
)

const DefaultNewsCount = 5

var newsSources = []string{
	"Bloomberg", "CNBC", "Financial Times", "Reuters", "Wall Street Journal",
	"MarketWatch", "Seeking Alpha", "Yahoo Finance", "Business Insider", "The Economist",
}

var headlineTemplates = []string{
	"{ENTITY} Reports {ADJ} Quarterly Earnings, {DIRECTION} Analyst Expectations",
	"Fed Officials Signal {ADJ} Stance on Interest Rates Amid {ECONOMIC} Concerns",
	"{SECTOR} Stocks {MOVEMENT} as {ENTITY} Announces {EVENT}",
	"Market {MOVEMENT} After {ENTITY} {EVENT}",
	"{COUNTRY} Economic Data Shows {ADJ} {ECONOMIC} Growth",
	"Investors React to {EVENT} with {MOVEMENT} in {SECTOR} Sector",
	"{ENTITY} CEO Comments on {EVENT}, Shares {MOVEMENT}",
	"Analysts {ADJ} on {SECTOR} Outlook Following {EVENT}",
	"{COUNTRY} {POLICY} Policy Shift Impacts Global Markets",
	"Breaking: {ENTITY} Announces {EVENT}, {SECTOR} Stocks {MOVEMENT}",
}

// placeholder pools, keyed by the template token they fill
var headlinePools = []struct {
	token string
	words []string
}{
	{"{ENTITY}", []string{
		"Apple", "Microsoft", "Amazon", "Google", "Tesla", "JP Morgan", "Goldman Sachs",
		"Exxon Mobil", "Pfizer", "Johnson & Johnson", "Federal Reserve", "European Central Bank", "Bank of England",
	}},
	{"{ADJ}", []string{
		"Strong", "Weak", "Surprising", "Disappointing", "Mixed",
		"Better-than-expected", "Worse-than-expected", "Steady", "Volatile", "Cautious",
	}},
	{"{SECTOR}", []string{
		"Technology", "Financial", "Healthcare", "Energy", "Consumer",
		"Industrial", "Materials", "Utilities", "Communication", "Real Estate",
	}},
	{"{ECONOMIC}", []string{
		"GDP", "CPI", "Inflation", "Employment", "Consumer Spending",
		"Manufacturing", "Trade Deficit", "Housing", "Retail Sales", "Supply Chain",
	}},
	{"{EVENT}", []string{
		"Acquisition", "Merger", "Product Launch", "Strategic Partnership", "Cost-Cutting Measures", "Layoffs",
		"Restructuring", "Dividend Increase", "Share Buyback", "Expansion Plans", "Regulatory Approval", "Legal Settlement",
	}},
	{"{COUNTRY}", []string{
		"US", "China", "EU", "UK", "Japan", "Germany", "India",
		"Brazil", "Russia", "Australia", "Canada", "South Korea",
	}},
	{"{MOVEMENT}", []string{
		"Rise", "Fall", "Surge", "Plunge", "Rally", "Retreat",
		"Climb", "Sink", "Jump", "Drop", "Rebound", "Slide",
	}},
	{"{DIRECTION}", []string{"Exceeding", "Missing", "Meeting", "Surpassing", "Falling Short of"}},
	{"{POLICY}", []string{"Monetary", "Fiscal", "Trade", "Regulatory", "Tax", "Environmental"}},
}

var tagCategories = [][]string{
	{"Tech", "Finance", "Healthcare", "Energy", "Retail", "Industrial"},
	{"Stocks", "Bonds", "Commodities", "Forex", "Crypto"},
	{"Earnings", "Economy", "Policy", "Inflation", "Interest Rates", "Growth"},
	{"US", "Europe", "Asia", "Global", "Emerging Markets"},
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// News simulates a headline feed.
type News struct {
	rnd   service.Rand
	count int
	now   func() time.Time
}

// NewNews creates a generator producing count items per cycle (DefaultNewsCount when count <= 0).
func NewNews(rnd service.Rand, count int) *News {
	if count <= 0 {
		count = DefaultNewsCount
	}
	return &News{rnd: rnd, count: count, now: time.Now}
}

func (n *News) Name() string { return simulatedSourceName }

func (n *News) FetchNews(ctx context.Context) ([]models.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := n.now()
	items := make([]models.NewsItem, 0, n.count)
	for i := 0; i < n.count; i++ {
		items = append(items, n.item(now))
	}
	return items, nil
}

func (n *News) item(now time.Time) models.NewsItem {
	ts := now.Add(-time.Duration(n.rnd.Intn(24)+1) * time.Hour)
	title := n.headline()
	source := n.choose(newsSources)

	return models.NewsItem{
		Title:           title,
		Summary:         n.summary(title),
		Timestamp:       ts,
		Source:          source,
		URL:             fmt.Sprintf("https://www.%s.com/%s", strings.ToLower(whitespaceRe.ReplaceAllString(source, "")), Slug(title)),
		SentimentImpact: util.Round1(n.rnd.Float64()*4 - 2),
		Tags:            n.tags(),
	}
}

// headline fills a template; tokens used twice are filled on a second pass with fresh draws.
func (n *News) headline() string {
	title := n.choose(headlineTemplates)
	for pass := 0; pass < 2 && strings.Contains(title, "{"); pass++ {
		for _, p := range headlinePools {
			title = strings.Replace(title, p.token, n.choose(p.words), 1)
		}
	}
	return title
}

func (n *News) summary(title string) string {
	volume := "below"
	if n.rnd.Float64() > 0.5 {
		volume = "above"
	}
	parts := []string{
		fmt.Sprintf("Investors reacted to the latest developments as %s.", strings.ToLower(title)),
		"Market analysts noted the implications for broader market sentiment.",
		"This comes amid ongoing concerns about economic conditions and policy decisions.",
		fmt.Sprintf("Trading volume was %s average following the news.", volume),
	}
	return n.choose(parts)
}

// tags draws 2-4 times from random categories, keeping distinct values.
func (n *News) tags() []string {
	draws := n.rnd.Intn(3) + 2
	tags := make([]string, 0, draws)
	for i := 0; i < draws; i++ {
		tag := n.choose(tagCategories[n.rnd.Intn(len(tagCategories))])
		if !containsString(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (n *News) choose(words []string) string {
	return words[n.rnd.Intn(len(words))]
}

// Slug lowercases s, drops punctuation, dashes whitespace and caps the result at 50 bytes.
func Slug(s string) string {
	s = nonWordRe.ReplaceAllString(strings.ToLower(s), "")
	s = whitespaceRe.ReplaceAllString(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var _ service.NewsSource = (*News)(nil)
