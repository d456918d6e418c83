package service

import (
	"context"

	"github.com/iliyamo/game-table-reservation/internal/model"
)

// TrendDays is the length of the dashboard booking trend.
const TrendDays = 7

// RecentLimit is how many recent bookings the dashboard shows.
const RecentLimit = 8

// CatalogueCounts are the master data totals shown on the dashboard.
type CatalogueCounts struct {
	Tables    int `json:"tables"`
	Timeslots int `json:"timeslots"`
	Games     int `json:"games"`
	Customers int `json:"customers"`
}

// DashboardSource supplies the aggregate queries behind the dashboard.
type DashboardSource interface {
	// CountByStatus counts bookings per status, restricted to one booking
	// date when on is non-nil.
	CountByStatus(ctx context.Context, on *model.Date) (map[string]int, error)
	CountCatalogue(ctx context.Context) (CatalogueCounts, error)
	// DailyCounts counts bookings per booking date in [from, to].
	DailyCounts(ctx context.Context, from, to model.Date) (map[string]int, error)
	Recent(ctx context.Context, limit int) ([]model.BookingDetail, error)
}

// StatusCounts is a total with its per-status breakdown.
type StatusCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
}

func toStatusCounts(m map[string]int) StatusCounts {
	sc := StatusCounts{
		Pending:   m[model.StatusPending],
		Confirmed: m[model.StatusConfirmed],
		Cancelled: m[model.StatusCancelled],
	}
	sc.Total = sc.Pending + sc.Confirmed + sc.Cancelled
	return sc
}

// TrendPoint is the number of bookings on one date.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FillTrend returns one point per day from from through to, using zero for
// days absent from counts.
func FillTrend(from, to model.Date, counts map[string]int) []TrendPoint {
	var out []TrendPoint
	for d := from; !d.After(to.Time); d = d.AddDays(1) {
		out = append(out, TrendPoint{Date: d.String(), Count: counts[d.String()]})
	}
	return out
}

// Dashboard is the admin overview.
type Dashboard struct {
	Today        StatusCounts          `json:"today"`
	Overall      StatusCounts          `json:"overall"`
	Catalogue    CatalogueCounts       `json:"catalogue"`
	Trend        []TrendPoint          `json:"trend"`
	Distribution map[string]int        `json:"status_distribution"`
	Recent       []model.BookingDetail `json:"recent"`
}

// BuildDashboard aggregates the overview for today.
func BuildDashboard(ctx context.Context, src DashboardSource, today model.Date) (Dashboard, error) {
	var d Dashboard
	todayCounts, err := src.CountByStatus(ctx, &today)
	if err != nil {
		return d, err
	}
	all, err := src.CountByStatus(ctx, nil)
	if err != nil {
		return d, err
	}
	if d.Catalogue, err = src.CountCatalogue(ctx); err != nil {
		return d, err
	}
	from := today.AddDays(-(TrendDays - 1))
	daily, err := src.DailyCounts(ctx, from, today)
	if err != nil {
		return d, err
	}
	if d.Recent, err = src.Recent(ctx, RecentLimit); err != nil {
		return d, err
	}
	d.Today = toStatusCounts(todayCounts)
	d.Overall = toStatusCounts(all)
	d.Trend = FillTrend(from, today, daily)
	d.Distribution = map[string]int{}
	for _, st := range model.Statuses {
		d.Distribution[st] = all[st]
	}
	return d, nil
}
