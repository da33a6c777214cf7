package models

import "time"

// Application statuses as shown in the dashboard.
const (
	ApplicationStatusPending  = "Pending"
	ApplicationStatusApproved = "Approved"
	ApplicationStatusLive     = "Live"
)

// Application is one IPO application submitted by a user. DocumentKey, when
// non-nil, is the object storage key of the supporting document.
type Application struct {
	ID            string
	UserID        string
	CompanyName   string
	CompanySymbol string
	IssueSize     float64
	PricePerShare float64
	TotalShares   int64
	Status        string
	DocumentKey   *string
	CreatedAt     time.Time
}
