package domain

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Percent returns part as a percentage of whole rounded to one decimal.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(part/whole*1000) / 10
}

type TicketTypeStats struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Capacity     int     `json:"capacity"`
	Sold         int     `json:"sold"`
	Revenue      float64 `json:"revenue"`
	SoldPercent  float64 `json:"soldPercent"`
	SharePercent float64 `json:"sharePercent"`
}

type EventAnalytics struct {
	EventID      uuid.UUID         `json:"eventId"`
	Capacity     int               `json:"capacity"`
	TicketsSold  int               `json:"ticketsSold"`
	Cancelled    int               `json:"cancelled"`
	CheckedIn    int               `json:"checkedIn"`
	Revenue      float64           `json:"revenue"`
	SoldPercent  float64           `json:"soldPercent"`
	CheckInRate  float64           `json:"checkInRate"`
	ByTicketType []TicketTypeStats `json:"byTicketType"`
}

// BuildEventAnalytics derives sales figures from the event's ticket types and
// its attendee list. Cancelled attendees do not count as sold. Attendees
// holding a ticket type the event no longer lists are grouped under their own
// name with zero price and capacity.
func BuildEventAnalytics(event Event, attendees []Attendee) EventAnalytics {
	a := EventAnalytics{EventID: event.ID, Capacity: event.Capacity()}

	byName := make(map[string]int, len(event.TicketTypes))
	stats := make([]TicketTypeStats, 0, len(event.TicketTypes))
	for _, tt := range event.TicketTypes {
		byName[strings.ToLower(tt.Name)] = len(stats)
		stats = append(stats, TicketTypeStats{Name: tt.Name, Price: tt.Price, Capacity: tt.Quantity})
	}

	for _, att := range attendees {
		if att.Status == AttendeeCancelled {
			a.Cancelled++
			continue
		}
		key := strings.ToLower(att.TicketType)
		idx, ok := byName[key]
		if !ok {
			idx = len(stats)
			byName[key] = idx
			stats = append(stats, TicketTypeStats{Name: att.TicketType})
		}
		stats[idx].Sold++
		stats[idx].Revenue += stats[idx].Price
		a.TicketsSold++
		if att.CheckInStatus {
			a.CheckedIn++
		}
	}

	for i := range stats {
		a.Revenue += stats[i].Revenue
		stats[i].SoldPercent = Percent(float64(stats[i].Sold), float64(stats[i].Capacity))
		stats[i].SharePercent = Percent(float64(stats[i].Sold), float64(a.TicketsSold))
	}
	a.ByTicketType = stats
	a.SoldPercent = Percent(float64(a.TicketsSold), float64(a.Capacity))
	a.CheckInRate = Percent(float64(a.CheckedIn), float64(a.TicketsSold))
	return a
}
