package notifications

import "github.com/yeremiapane/mf-tracker/models"

// Summary is the view consumers render: the live panel, the scheduled list
// and the unread badge.
type Summary struct {
	Active    []models.NotificationRecord `json:"active"`
	Scheduled []models.NotificationRecord `json:"scheduled"`
	Unread    int                         `json:"unread"`
}

func Summarize(records []models.NotificationRecord) Summary {
	sum := Summary{
		Active:    filter(records, models.NotificationRecord.IsActive),
		Scheduled: filter(records, models.NotificationRecord.IsScheduled),
	}
	for _, rec := range sum.Active {
		if !rec.Read {
			sum.Unread++
		}
	}
	return sum
}
