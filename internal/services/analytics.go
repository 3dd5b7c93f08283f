package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	topN = 5
	week = 7 * 24 * time.Hour
)

var statusColors = map[models.ComplaintStatus]string{
	models.StatusPending:    "#156BEC",
	models.StatusInProgress: "#0D4BA3",
	models.StatusResolved:   "#4B8EF5",
	models.StatusRejected:   "#ADD0F9",
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// AnalyticsService aggregates dashboard charts. Rows come from the
// repository and are aggregated in memory against an injected clock.
type AnalyticsService struct {
	store  repository.Store
	logger *zap.SugaredLogger
	now    Clock
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(store repository.Store, logger *zap.SugaredLogger) *AnalyticsService {
	return &AnalyticsService{store: store, logger: logger, now: time.Now}
}

// Organization returns the super-admin dashboard
func (s *AnalyticsService) Organization(ctx context.Context) (*models.OrganizationAnalytics, error) {
	complaints, err := s.store.ListComplaints(ctx, repository.ComplaintFilter{})
	if err != nil {
		return nil, err
	}
	transfers, err := s.store.ListHistory(ctx, repository.HistoryFilter{Action: models.ActionTransferred})
	if err != nil {
		return nil, err
	}
	return buildOrganizationAnalytics(complaints, transfers, s.now()), nil
}

// Agency returns the agency-admin dashboard
func (s *AnalyticsService) Agency(ctx context.Context, agencyID uuid.UUID) (*models.AgencyAnalytics, error) {
	if _, err := s.store.GetAgency(ctx, agencyID); err != nil {
		return nil, err
	}
	complaints, err := s.store.ListComplaints(ctx, repository.ComplaintFilter{AgencyID: &agencyID})
	if err != nil {
		return nil, err
	}
	staff, err := s.store.ListUsers(ctx, repository.UserFilter{AgencyID: &agencyID, Role: models.RoleStaff})
	if err != nil {
		return nil, err
	}

	assignments := make([]models.ChartPoint, 0, len(staff))
	for _, u := range staff {
		assigned, err := s.store.ListComplaints(ctx, repository.ComplaintFilter{StaffID: &u.ID})
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, models.ChartPoint{Name: u.Name, Value: len(assigned)})
	}

	a := buildAgencyAnalytics(complaints)
	a.StaffAssignments = assignments
	return a, nil
}

// Staff returns the dashboard of one staff member
func (s *AnalyticsService) Staff(ctx context.Context, staffID uuid.UUID) (*models.StaffAnalytics, error) {
	if _, err := s.store.GetUser(ctx, staffID); err != nil {
		return nil, err
	}
	complaints, err := s.store.ListComplaints(ctx, repository.ComplaintFilter{StaffID: &staffID})
	if err != nil {
		return nil, err
	}
	return buildStaffAnalytics(complaints, s.now()), nil
}

// statusPoints counts complaints per status, every status included
func statusPoints(complaints []models.ComplaintDetail) []models.ChartPoint {
	counts := make(map[models.ComplaintStatus]int, len(models.AllStatuses))
	for _, c := range complaints {
		counts[c.Status]++
	}
	points := make([]models.ChartPoint, 0, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		points = append(points, models.ChartPoint{Name: string(st), Value: counts[st], Color: statusColors[st]})
	}
	return points
}

// topPoints sorts by value descending, then name, and keeps the first n
func topPoints(counts map[string]int, n int) []models.ChartPoint {
	points := make([]models.ChartPoint, 0, len(counts))
	for name, v := range counts {
		points = append(points, models.ChartPoint{Name: name, Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Value != points[j].Value {
			return points[i].Value > points[j].Value
		}
		return points[i].Name < points[j].Name
	})
	if len(points) > n {
		points = points[:n]
	}
	return points
}

func agencyName(a *models.AgencySummary) string {
	if a == nil || a.Name == "" {
		return "Unknown Agency"
	}
	return a.Name
}

func buildOrganizationAnalytics(complaints []models.ComplaintDetail, transfers []models.HistoryEntry, now time.Time) *models.OrganizationAnalytics {
	byAgency := make(map[string]int)
	type resolution struct {
		total float64
		count int
	}
	resolutions := make(map[string]*resolution)

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := midnight.AddDate(0, 0, -7)
	monthAgo := midnight.AddDate(0, -1, 0)
	var totals models.PeriodTotals
	trend := make([]int, len(weekdays))

	for _, c := range complaints {
		name := agencyName(c.Agency)
		byAgency[name]++

		if c.Status == models.StatusResolved {
			r := resolutions[name]
			if r == nil {
				r = &resolution{}
				resolutions[name] = r
			}
			r.total += c.UpdatedAt.Sub(c.CreatedAt).Hours() / 24
			r.count++
		}

		created := c.CreatedAt.In(now.Location())
		if !created.Before(midnight) {
			totals.Today++
		}
		if !created.Before(weekAgo) {
			totals.ThisWeek++
		}
		if !created.Before(monthAgo) {
			totals.ThisMonth++
		}
		if created.Year() == now.Year() {
			// time.Weekday starts on Sunday
			trend[(int(created.Weekday())+6)%7]++
		}
	}

	resolutionData := make([]models.ChartMetric, 0, len(resolutions))
	for name, r := range resolutions {
		resolutionData = append(resolutionData, models.ChartMetric{Name: name, Value: r.total / float64(r.count)})
	}
	sort.Slice(resolutionData, func(i, j int) bool {
		if resolutionData[i].Value != resolutionData[j].Value {
			return resolutionData[i].Value < resolutionData[j].Value
		}
		return resolutionData[i].Name < resolutionData[j].Name
	})
	if len(resolutionData) > topN {
		resolutionData = resolutionData[:topN]
	}

	byTarget := make(map[string]int)
	for _, h := range transfers {
		if h.Action != models.ActionTransferred || h.ToAgencyID == nil {
			continue
		}
		byTarget[agencyName(h.ToAgency)]++
	}

	trendData := make([]models.ChartPoint, len(weekdays))
	for i, day := range weekdays {
		trendData[i] = models.ChartPoint{Name: day, Value: trend[i]}
	}

	return &models.OrganizationAnalytics{
		ComplaintStatusData: statusPoints(complaints),
		TopAgenciesData:     topPoints(byAgency, topN),
		ResolutionTimeData:  resolutionData,
		TransferData:        topPoints(byTarget, topN),
		TotalComplaints:     totals,
		ComplaintsTrendData: trendData,
	}
}

// resolutionBucket names the bucket for a resolution time
func resolutionBucket(d time.Duration) string {
	switch h := d.Hours(); {
	case h <= 24:
		return "Within 24h"
	case h <= 48:
		return "24-48h"
	case h <= 72:
		return "48-72h"
	default:
		return ">72h"
	}
}

func buildAgencyAnalytics(complaints []models.ComplaintDetail) *models.AgencyAnalytics {
	buckets := []string{"Within 24h", "24-48h", "48-72h", ">72h"}
	counts := make(map[string]int, len(buckets))

	totals := models.AgencyTotals{Total: len(complaints)}
	for _, c := range complaints {
		switch c.Status {
		case models.StatusPending:
			totals.Pending++
		case models.StatusResolved:
			totals.Resolved++
			counts[resolutionBucket(c.UpdatedAt.Sub(c.CreatedAt))]++
		}
	}

	rates := make([]models.ChartPoint, len(buckets))
	for i, b := range buckets {
		rates[i] = models.ChartPoint{Name: b, Value: counts[b]}
	}

	return &models.AgencyAnalytics{
		TotalComplaints:    totals,
		ComplaintsByStatus: statusPoints(complaints),
		StaffAssignments:   []models.ChartPoint{},
		ResolutionRateData: rates,
	}
}

type agingBucket struct {
	name     string
	maxHours int
	color    string
}

var agingBuckets = []agingBucket{
	{"0-24 hours", 24, "#22C55E"},
	{"25-48 hours", 48, "#FFA500"},
	{"49-72 hours", 72, "#EF4444"},
	{">72 hours", -1, "#DC2626"},
}

// agingIndex picks the aging bucket for whole hours since assignment
func agingIndex(hours int) int {
	for i, b := range agingBuckets {
		if b.maxHours >= 0 && hours <= b.maxHours {
			return i
		}
	}
	return len(agingBuckets) - 1
}

func buildStaffAnalytics(complaints []models.ComplaintDetail, now time.Time) *models.StaffAnalytics {
	aging := make([]int, len(agingBuckets))
	resolved := make([]int, 4)
	assigned := make([]models.AssignedComplaint, 0, len(complaints))

	for _, c := range complaints {
		since := c.CreatedAt
		if c.Assignment != nil {
			since = c.Assignment.AssignedAt
		}
		elapsed := now.Sub(since)
		aging[agingIndex(int(elapsed.Hours()))]++

		if c.Status == models.StatusResolved {
			if idx := int(now.Sub(c.UpdatedAt) / week); idx >= 0 && idx < len(resolved) {
				resolved[idx]++
			}
		}

		assigned = append(assigned, models.AssignedComplaint{
			ID:                  c.ID.String(),
			Title:               c.Subject,
			Status:              c.Status,
			CreatedAt:           c.CreatedAt.UTC().Format("2006-01-02"),
			DaysSinceAssignment: int(elapsed.Hours() / 24),
		})
	}

	agingData := make([]models.ChartPoint, len(agingBuckets))
	for i, b := range agingBuckets {
		agingData[i] = models.ChartPoint{Name: b.name, Value: aging[i], Color: b.color}
	}
	// Index 0 is the most recent week
	resolvedData := make([]models.ChartPoint, len(resolved))
	for i, v := range resolved {
		resolvedData[i] = models.ChartPoint{Name: fmt.Sprintf("Week %d", len(resolved)-i), Value: v}
	}

	return &models.StaffAnalytics{
		StatusData:         statusPoints(complaints),
		AgingData:          agingData,
		ResolvedData:       resolvedData,
		AssignedComplaints: assigned,
	}
}
