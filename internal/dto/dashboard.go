package dto

import "github.com/noah-isme/clinic-agenda-api/internal/models"

// ServiceUsage counts appointments booked for one catalog service.
type ServiceUsage struct {
	ServiceID string `json:"service_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Count     int    `json:"count"`
}

// DashboardResponse is the landing page summary scoped to the caller's role.
type DashboardResponse struct {
	Date          string                          `json:"date"`
	Today         []models.AppointmentWithDetails `json:"today"`
	TodayTotal    int                             `json:"today_total"`
	Tomorrow      []models.AppointmentWithDetails `json:"tomorrow"`
	Confirmed     int                             `json:"confirmed"`
	Completed     int                             `json:"completed"`
	Cancelled     int                             `json:"cancelled"`
	Clients       int                             `json:"clients"`
	ServiceUsage  []ServiceUsage                  `json:"service_usage"`
	Professionals int                             `json:"professionals"`
}

// SystemMetrics is a lightweight view of runtime counters for admins.
type SystemMetrics struct {
	Requests        uint64            `json:"requests"`
	AvgRequestMs    float64           `json:"avg_request_ms"`
	CacheHitRatio   float64           `json:"cache_hit_ratio"`
	SnapshotLoads   uint64            `json:"snapshot_loads"`
	AvgSnapshotMs   float64           `json:"avg_snapshot_ms"`
	RateLimited     uint64            `json:"rate_limited"`
	AuditDropped    uint64            `json:"audit_dropped"`
	SlotResolutions map[string]uint64 `json:"slot_resolutions"`
	Goroutines      int               `json:"goroutines"`
}
