package schwab

// Wire shapes for the Schwab market data API. Timestamps arrive as epoch
// milliseconds.

type candle struct {
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   int64   `json:"volume"`
	Datetime int64   `json:"datetime"`
}

type priceHistoryResponse struct {
	Symbol  string   `json:"symbol"`
	Empty   bool     `json:"empty"`
	Candles []candle `json:"candles"`
}

type quoteDetail struct {
	BidPrice      float64 `json:"bidPrice"`
	AskPrice      float64 `json:"askPrice"`
	BidSize       int64   `json:"bidSize"`
	AskSize       int64   `json:"askSize"`
	QuoteTimeMsec int64   `json:"quoteTimeInLong"`
}

type quoteEntry struct {
	Symbol string      `json:"symbol"`
	Quote  quoteDetail `json:"quote"`
}

// quotesResponse maps symbol -> entry.
type quotesResponse map[string]quoteEntry

type chainContract struct {
	PutCall      string  `json:"putCall"`
	TotalVolume  int64   `json:"totalVolume"`
	OpenInterest int64   `json:"openInterest"`
	Volatility   float64 `json:"volatility"`
}

// Expiry maps are keyed "date:dte", then strike -> contracts.
type chainResponse struct {
	Symbol         string                               `json:"symbol"`
	PutExpDateMap  map[string]map[string][]chainContract `json:"putExpDateMap"`
	CallExpDateMap map[string]map[string][]chainContract `json:"callExpDateMap"`
}

type tapeTrade struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
	Size  int64   `json:"size"`
}

type tapeQuote struct {
	Time int64   `json:"time"`
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
}

type timeSalesResponse struct {
	Symbol string      `json:"symbol"`
	Trades []tapeTrade `json:"trades"`
	Quotes []tapeQuote `json:"quotes"`
}

type volHistoryPoint struct {
	Datetime   int64   `json:"datetime"`
	Volatility float64 `json:"volatility"`
}

type volHistoryResponse struct {
	Symbol string            `json:"symbol"`
	Points []volHistoryPoint `json:"points"`
}
