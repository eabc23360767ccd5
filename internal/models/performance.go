// internal/models/performance.go
package models

import "time"

// PerformanceAggregate is one row of the externally computed 30-day window.
// MedianResponseSeconds is already normalised to seconds by the store.
type PerformanceAggregate struct {
	SupplierID            string     `json:"supplierId"`
	InvitesCount          int        `json:"invitesCount"`
	QuotesSent            int        `json:"quotesSent"`
	QuotesAccepted        int        `json:"quotesAccepted"`
	AcceptanceRate        float64    `json:"acceptanceRate"`
	MedianResponseSeconds *float64   `json:"medianResponseSeconds,omitempty"`
	LastQuoteSentAt       *time.Time `json:"lastQuoteSentAt,omitempty"`
	LastActiveAt          *time.Time `json:"lastActiveAt,omitempty"`
}

// RankFeatures holds the four quality sub-scores and their composite, each in [0,1].
type RankFeatures struct {
	SupplierID         string  `json:"supplierId"`
	SmoothedAcceptance float64 `json:"smoothedAcceptance"`
	ResponseScore      float64 `json:"responseScore"`
	ActivityScore      float64 `json:"activityScore"`
	VolumeScore        float64 `json:"volumeScore"`
	BaseQuality        float64 `json:"baseQuality"`
}
