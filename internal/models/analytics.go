package models

// ChartPoint is a named count for pie/bar charts
type ChartPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color,omitempty"`
}

// ChartMetric is a named measurement (e.g. average days)
type ChartMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PeriodTotals counts complaints created in rolling windows
type PeriodTotals struct {
	Today     int `json:"today"`
	ThisWeek  int `json:"this_week"`
	ThisMonth int `json:"this_month"`
}

// OrganizationAnalytics is the super-admin dashboard
type OrganizationAnalytics struct {
	ComplaintStatusData []ChartPoint  `json:"complaint_status_data"`
	TopAgenciesData     []ChartPoint  `json:"top_agencies_data"`
	ResolutionTimeData  []ChartMetric `json:"resolution_time_data"`
	TransferData        []ChartPoint  `json:"transfer_data"`
	TotalComplaints     PeriodTotals  `json:"total_complaints"`
	ComplaintsTrendData []ChartPoint  `json:"complaints_trend_data"`
}

// AgencyTotals counts an agency's complaints
type AgencyTotals struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Resolved int `json:"resolved"`
}

// AgencyAnalytics is the agency-admin dashboard
type AgencyAnalytics struct {
	TotalComplaints    AgencyTotals `json:"total_complaints"`
	ComplaintsByStatus []ChartPoint `json:"complaints_by_status"`
	StaffAssignments   []ChartPoint `json:"staff_assignments"`
	ResolutionRateData []ChartPoint `json:"resolution_rate_data"`
}

// AssignedComplaint is a row of the staff dashboard's work list
type AssignedComplaint struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Status              ComplaintStatus `json:"status"`
	CreatedAt           string          `json:"created_at"`
	DaysSinceAssignment int             `json:"days_since_assignment"`
}

// StaffAnalytics is the staff dashboard
type StaffAnalytics struct {
	StatusData         []ChartPoint        `json:"status_data"`
	AgingData          []ChartPoint        `json:"aging_data"`
	ResolvedData       []ChartPoint        `json:"resolved_data"`
	AssignedComplaints []AssignedComplaint `json:"assigned_complaints"`
}
