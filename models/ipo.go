package models

// Exchange values recognized by the listing pipeline. Anything else
// coming from upstream is normalized to ExchangeUnknown.
const (
	ExchangeNASDAQ  = "NASDAQ"
	ExchangeNYSE    = "NYSE"
	ExchangeCBOE    = "CBOE"
	ExchangeOTC     = "OTC"
	ExchangeUnknown = "Unknown"
)

// NoLogoMarker is the explicit "no logo available" value. The canonical
// record never carries a null logo field; absence is stated outright so
// downstream consumers can distinguish "not fetched yet" from a real URL.
const NoLogoMarker = "no-logo"

// IPO is the canonical record every upstream row variant is converted
// into before sorting, pagination, or display. String fields are never
// null: a missing source value becomes an empty string (logo excepted,
// see NoLogoMarker). JSON names match the existing edge/KV schema.
type IPO struct {
	// CIK is the stable unique identifier (SEC Central Index Key),
	// treated as an opaque string key throughout.
	CIK              string `json:"cik"`
	Ticker           string `json:"ticker"`
	CompanyName      string `json:"company_name"`
	Exchange         string `json:"exchange"`
	SharesOffered    string `json:"shares_offered"`
	SharePrice       string `json:"share_price"`
	EstimatedIPODate string `json:"estimated_ipo_date"`
	LatestFilingType string `json:"latest_filing_type"`
	// MarketCap is the estimated raise amount as free-form text; it is
	// coerced to a number only for sort comparisons.
	MarketCap string `json:"market_cap"`
	LogoURL   string `json:"logo_url"`

	// Rank is the 1-based position under the current sort order,
	// assigned by the sorter. Always a contiguous 1..N sequence.
	Rank int `json:"rank"`

	// IsStarred reflects membership of CIK in the viewing user's
	// watchlist. False for anonymous viewers.
	IsStarred bool `json:"isStarred"`
}

// RawRow is a single upstream record before normalization. The KV
// snapshot and the database emit different field name and type variants
// for the same data, so the boundary keeps them duck-typed and the
// normalizer produces the one concrete shape.
type RawRow map[string]any
