package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"ipotrack/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NormalizerService converts heterogeneous upstream rows into the
// canonical record shape. The KV snapshot and the database disagree on
// field naming (snake_case vs camelCase) and on types (numbers arrive
// as JSON numbers from one source and as formatted strings from the
// other); everything downstream of this service sees exactly one shape.
//
// The service never returns an error and never panics: any value it
// cannot make sense of degrades to an empty string.
type NormalizerService struct {
	printer *message.Printer
}

// NewNormalizerService creates a normalizer. Numeric source values are
// rendered in en-US decimal form ("1,234,567") to match what the
// legacy data pipeline stored.
func NewNormalizerService() *NormalizerService {
	return &NormalizerService{
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// Field aliases across the two upstream shapes. First match wins.
var (
	aliasCIK        = []string{"cik"}
	aliasTicker     = []string{"ticker", "symbol"}
	aliasCompany    = []string{"company_name", "companyName", "name"}
	aliasExchange   = []string{"exchange"}
	aliasShares     = []string{"shares_offered", "sharesOffered"}
	aliasPrice      = []string{"share_price", "sharePrice"}
	aliasDate       = []string{"estimated_ipo_date", "estimatedIpoDate", "expected_date"}
	aliasFilingType = []string{"latest_filing_type", "latestFilingType", "form_type"}
	aliasMarketCap  = []string{"market_cap", "marketCap"}
	aliasLogo       = []string{"logo_url", "logoUrl"}
)

// NormalizeRow maps one upstream row into a canonical record. Rank is
// initialized to zero; it is always assigned downstream by the sorter.
func (s *NormalizerService) NormalizeRow(raw models.RawRow) models.IPO {
	return models.IPO{
		CIK:              s.stringField(raw, aliasCIK...),
		Ticker:           s.stringField(raw, aliasTicker...),
		CompanyName:      s.stringField(raw, aliasCompany...),
		Exchange:         s.NormalizeExchange(s.stringField(raw, aliasExchange...)),
		SharesOffered:    s.stringField(raw, aliasShares...),
		SharePrice:       s.stringField(raw, aliasPrice...),
		EstimatedIPODate: s.stringField(raw, aliasDate...),
		LatestFilingType: s.stringField(raw, aliasFilingType...),
		MarketCap:        s.stringField(raw, aliasMarketCap...),
		LogoURL:          s.logoField(raw),
	}
}

// NormalizeRows maps a full upstream row set, skipping rows without a
// usable identifier.
func (s *NormalizerService) NormalizeRows(raws []models.RawRow) []models.IPO {
	records := make([]models.IPO, 0, len(raws))
	for _, raw := range raws {
		record := s.NormalizeRow(raw)
		if record.CIK == "" {
			continue
		}
		records = append(records, record)
	}
	return records
}

// stringField extracts the first aliased value as a string. Strings
// pass through trimmed, numbers become their en-US decimal form, and
// anything else (null, bool, nested objects) becomes "".
func (s *NormalizerService) stringField(raw models.RawRow, keys ...string) string {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v)
		case float64:
			return s.formatNumber(v)
		case int:
			return s.formatNumber(float64(v))
		case int64:
			return s.formatNumber(float64(v))
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return s.formatNumber(f)
			}
		}
	}
	return ""
}

func (s *NormalizerService) formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return s.printer.Sprint(number.Decimal(int64(f)))
	}
	return s.printer.Sprint(number.Decimal(f))
}

// logoField resolves the logo URL, substituting the explicit no-logo
// marker when the source has nothing usable.
func (s *NormalizerService) logoField(raw models.RawRow) string {
	if url := s.stringField(raw, aliasLogo...); url != "" {
		return url
	}
	return models.NoLogoMarker
}

// NormalizeExchange folds upstream exchange spellings into the known
// set, defaulting to Unknown.
func (s *NormalizerService) NormalizeExchange(exchange string) string {
	switch upper := strings.ToUpper(strings.TrimSpace(exchange)); {
	case strings.HasPrefix(upper, "NASDAQ"):
		return models.ExchangeNASDAQ
	case strings.HasPrefix(upper, "NYSE"):
		return models.ExchangeNYSE
	case strings.HasPrefix(upper, "CBOE"), strings.HasPrefix(upper, "BZX"):
		return models.ExchangeCBOE
	case strings.HasPrefix(upper, "OTC"):
		return models.ExchangeOTC
	default:
		return models.ExchangeUnknown
	}
}

var nonNumericChars = regexp.MustCompile(`[^0-9.]`)

// CoerceNumeric extracts a sortable numeric value from free-form text:
// plain numbers, formatted currency ("$1,234.50"), or "low - high"
// ranges, where the upper bound is the comparison key. The function is
// total: any input that resists parsing coerces to zero, and the result
// is always finite.
func (s *NormalizerService) CoerceNumeric(value string) float64 {
	if left, right, ok := splitRange(value); ok {
		l := parseScrubbed(left)
		r := parseScrubbed(right)
		if l > r {
			return l
		}
		return r
	}
	return parseScrubbed(value)
}

// splitRange detects a "low - high" range: a single dash with at least
// one digit on each side. Anything else falls back to plain parsing.
func splitRange(value string) (left, right string, ok bool) {
	idx := strings.Index(value, "-")
	if idx < 0 {
		return "", "", false
	}
	left, right = value[:idx], value[idx+1:]
	if !strings.ContainsAny(left, "0123456789") || !strings.ContainsAny(right, "0123456789") {
		return "", "", false
	}
	return left, right, true
}

// parseScrubbed strips everything but digits and decimal points before
// parsing. Failed parses are zero, never an error.
func parseScrubbed(value string) float64 {
	scrubbed := nonNumericChars.ReplaceAllString(value, "")
	if scrubbed == "" {
		return 0
	}
	d, err := decimal.NewFromString(scrubbed)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
