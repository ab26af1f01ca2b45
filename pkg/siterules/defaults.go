package siterules

// paragraphOnlyHosts need no container; plain paragraphs across the page work.
var paragraphOnlyHosts = []string{
	"www.washingtonexaminer.com",
	"www.wsj.com",
	"www.newsweek.com",
	"www.businessinsider.com",
	"www.washingtonpost.com",
	"www.chicagotribune.com",
	"www.newyorker.com",
	"www.lasvegassun.com",
	"www.sfchronicle.com",
	"www.latimes.com",
	"www.nydailynews.com",
	"www.washingtontimes.com",
	"www.thenation.com",
	"www.theguardian.com",
	"www.foxnews.com",
	"www.theatlantic.com",
	"www.sfexaminer.com",
	"www.bostonherald.com",
	"www.thedailybeast.com",
}

// Default returns the built-in publisher table.
func Default() *Table {
	rules := []SiteRule{
		{
			Host:      "www.nytimes.com",
			Container: Match("article", "id", "story"),
			Paragraph: Match("p", "class", "css-exrw3m"),
		},
		{
			Host:      "www.seattletimes.com",
			Container: Match("div", "id", "article-content"),
			Paragraph: Match("p", ""),
		},
		{
			Host:      "www.msn.com",
			Container: Match("div", "id", "maincontent"),
			Paragraph: Match("p", ""),
		},
		{
			Host:      "www.usatoday.com",
			Container: Match("article", "class", "gnt_pr"),
			Paragraph: Match("p", "class", "gnt_ar_b_p"),
		},
		{
			Host:      "www.politico.com",
			Container: Match("div", "class", "story-text"),
			Paragraph: Match("p", "class", "story-text__paragraph"),
		},
		{
			Host:      "www.mercurynews.com",
			Container: Match("div", "class", "body-copy"),
			Paragraph: Match("p", ""),
		},
		{
			Host:      "www.denverpost.com",
			Container: Match("div", "class", "article-body"),
			Paragraph: Match("p", ""),
		},
		{
			// CNN tags some paragraphs "speakable" as well.
			Host:      "www.cnn.com",
			Paragraph: Match("div", "class", "zn-body__paragraph", "zn-body__paragraph speakable"),
		},
	}
	for _, host := range paragraphOnlyHosts {
		rules = append(rules, SiteRule{Host: host, Paragraph: Match("p", "")})
	}
	return NewTable(rules...)
}
