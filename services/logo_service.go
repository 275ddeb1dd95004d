package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"ipotrack/shared"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

// Legal suffixes stripped from company names before guessing domains.
var companySuffixes = []string{
	"inc", "incorporated", "corp", "corporation", "company", "co", "ltd",
	"limited", "llc", "plc", "holdco", "holding", "holdings", "group",
	"trust", "partner", "partners", "capital", "ventures", "acquisition",
	"acquisitions", "spac", "fund", "gmbh", "nv", "bv", "ag", "sarl",
	"pty", "llp", "lp",
}

var (
	suffixPattern       = regexp.MustCompile(`\b(` + strings.Join(companySuffixes, "|") + `)\b`)
	trailingRomanNumber = regexp.MustCompile(`\b(i|ii|iii|iv|v|vi|vii|viii|ix|x)\b$`)
	namePunctuation     = regexp.MustCompile(`[.,'()/_-]`)
	repeatedWhitespace  = regexp.MustCompile(`\s+`)
)

// LogoService discovers company logo URLs by crawling candidate
// homepages and reading their icon and social-preview metadata. Used
// only by the backfill job, never on the request path.
type LogoService struct {
	limiter *shared.RequestRateLimiter
	timeout time.Duration
}

func NewLogoService(httpConfig shared.HTTPConfig) *LogoService {
	return &LogoService{
		limiter: shared.NewRequestRateLimiter(httpConfig.RequestRateLimit),
		timeout: httpConfig.RequestTimeout,
	}
}

// CleanCompanyName strips legal suffixes, punctuation, and a trailing
// roman numeral (SPAC series) from a company name.
func (l *LogoService) CleanCompanyName(name string) string {
	cleaned := strings.ToLower(name)
	cleaned = strings.ReplaceAll(cleaned, "&", " and ")
	cleaned = namePunctuation.ReplaceAllString(cleaned, " ")
	cleaned = suffixPattern.ReplaceAllString(cleaned, " ")
	cleaned = repeatedWhitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = trailingRomanNumber.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// CandidateDomains guesses homepage domains from the cleaned name:
// the words joined together, then the first word alone.
func (l *LogoService) CandidateDomains(cleanedName string) []string {
	parts := strings.Fields(cleanedName)
	if len(parts) == 0 {
		return nil
	}

	var domains []string
	joined := strings.Join(parts, "")
	domains = append(domains, joined+".com")
	if len(parts) > 1 {
		domains = append(domains, parts[0]+".com")
	}
	return domains
}

// DiscoverLogoURL visits one domain and returns the best logo URL it
// advertises, preferring the social preview image over touch icons
// over plain favicons. Returns "" when the page yields nothing.
func (l *LogoService) DiscoverLogoURL(domain string) string {
	var ogImage, touchIcon, favicon string

	collector := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
		colly.MaxDepth(1),
	)
	collector.SetRequestTimeout(l.timeout)

	collector.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		if ogImage == "" {
			ogImage = e.Request.AbsoluteURL(e.Attr("content"))
		}
	})
	collector.OnHTML(`link[rel="apple-touch-icon"]`, func(e *colly.HTMLElement) {
		if touchIcon == "" {
			touchIcon = e.Request.AbsoluteURL(e.Attr("href"))
		}
	})
	collector.OnHTML(`link[rel="icon"], link[rel="shortcut icon"]`, func(e *colly.HTMLElement) {
		if favicon == "" {
			favicon = e.Request.AbsoluteURL(e.Attr("href"))
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		logrus.WithFields(logrus.Fields{
			"domain": domain,
			"status": r.StatusCode,
		}).WithError(err).Debug("Logo page fetch failed")
	})

	l.limiter.Wait()
	if err := collector.Visit(fmt.Sprintf("https://%s", domain)); err != nil {
		return ""
	}
	collector.Wait()

	switch {
	case ogImage != "":
		return ogImage
	case touchIcon != "":
		return touchIcon
	default:
		return favicon
	}
}

// FindLogo runs the full discovery for a company name, trying each
// candidate domain until one yields a logo. Returns "" when nothing is
// found; the caller keeps the no-logo marker in that case.
func (l *LogoService) FindLogo(companyName string) string {
	cleaned := l.CleanCompanyName(companyName)
	for _, domain := range l.CandidateDomains(cleaned) {
		if url := l.DiscoverLogoURL(domain); url != "" {
			logrus.WithFields(logrus.Fields{
				"company": companyName,
				"domain":  domain,
			}).Debug("Discovered company logo")
			return url
		}
	}
	return ""
}
