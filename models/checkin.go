package models

import (
	"time"

	"github.com/mmdatafocus/shop_console/utils"
)

// CheckinRecord is immutable once created; it can only be deleted.
type CheckinRecord struct {
	ID           Int    `json:"id"`
	CustomerId   Int    `json:"customer_id"`
	UserId       Int    `json:"user_id"`
	ShopPhoto    string `json:"shop_photo"`
	CheckinTime  string `json:"checkin_time"`
	CustomerName string `json:"customer_name"`
	ShopName     string `json:"shop_name"`
	UserName     string `json:"user_name"`
	UserPhone    string `json:"user_phone"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

// WithPhotoURL fills PhotoURL from the uploads base.
func (c CheckinRecord) WithPhotoURL(uploadsBase string) CheckinRecord {
	c.PhotoURL = utils.BuildObjectAccessURL(uploadsBase, c.ShopPhoto)
	return c
}

type Pagination struct {
	Page       Int `json:"page"`
	Limit      Int `json:"limit"`
	Total      Int `json:"total"`
	TotalPages Int `json:"total_pages"`
}

type CheckinPage struct {
	Checkins    []CheckinRecord `json:"checkins"`
	Pagination  Pagination      `json:"pagination"`
	CurrentUser string          `json:"current_user"`
}

type CheckinStats struct {
	Total    int `json:"total"`
	Today    int `json:"today"`
	LastWeek int `json:"last_week"`
}

// checkin_time is written by the backend as "2006-01-02 15:04:05" local time.
var checkinTimeLayouts = []string{time.DateTime, time.RFC3339, "2006-01-02T15:04:05"}

func ParseCheckinTime(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range checkinTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SummarizeCheckins counts all records, today's, and the last seven days' (today included).
func SummarizeCheckins(records []CheckinRecord, now time.Time) CheckinStats {
	stats := CheckinStats{Total: len(records)}
	loc := now.Location()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	weekStart := startOfToday.AddDate(0, 0, -6)
	for _, r := range records {
		t, ok := ParseCheckinTime(r.CheckinTime, loc)
		if !ok {
			continue
		}
		if !t.Before(startOfToday) {
			stats.Today++
		}
		if !t.Before(weekStart) {
			stats.LastWeek++
		}
	}
	return stats
}
