package models

import "time"

// MarketQuote is a cached market-data snapshot for a ticker, stored in MongoDB
type MarketQuote struct {
	Ticker        string    `json:"ticker" bson:"ticker"`
	Price         float64   `json:"price" bson:"price"`
	Volume        int64     `json:"volume" bson:"volume"`
	ChangePercent float64   `json:"change_percent" bson:"change_percent"`
	FetchedAt     time.Time `json:"fetched_at" bson:"fetched_at"`
}
