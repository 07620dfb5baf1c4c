package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/destinpq/groow-sub007/internal/envelope"
)

const iotPath = "/iot/analytics"

// Metric is a sensor metric definition
type Metric struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DeviceID    string            `json:"deviceId"`
	Unit        string            `json:"unit"`
	Aggregation string            `json:"aggregation"`
	Tags        map[string]string `json:"tags,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// MetricPoint is one sample of a metric
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricQuery bounds a metric data read
type MetricQuery struct {
	From     time.Time
	To       time.Time
	Interval string
}

func (q MetricQuery) values() url.Values {
	v := url.Values{}
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	if q.Interval != "" {
		v.Set("interval", q.Interval)
	}
	return v
}

// Dashboard groups widgets over metrics
type Dashboard struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Widgets   []DashboardWidget `json:"widgets"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type DashboardWidget struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	MetricID string `json:"metricId"`
	Title    string `json:"title"`
}

// Overview summarizes the device fleet
type Overview struct {
	TotalDevices  int `json:"totalDevices"`
	OnlineDevices int `json:"onlineDevices"`
	ActiveAlerts  int `json:"activeAlerts"`
	MetricCount   int `json:"metricCount"`
}

// IoTAnalyticsService reads device analytics. The marketplace backend does
// not serve these routes; they are answered by the analytics gateway.
type IoTAnalyticsService struct {
	c *Client
}

func (s *IoTAnalyticsService) Metrics(ctx context.Context, params ListParams) (envelope.Page[Metric], error) {
	return getPage[Metric](ctx, s.c, iotPath+"/metrics", params)
}

func (s *IoTAnalyticsService) Metric(ctx context.Context, id string) (*Metric, error) {
	return one[Metric](ctx, s.c, http.MethodGet, iotPath+"/metrics/"+url.PathEscape(id), nil)
}

func (s *IoTAnalyticsService) CreateMetric(ctx context.Context, m Metric) (*Metric, error) {
	return one[Metric](ctx, s.c, http.MethodPost, iotPath+"/metrics", m)
}

func (s *IoTAnalyticsService) MetricData(ctx context.Context, id string, q MetricQuery) ([]MetricPoint, error) {
	return getItems[MetricPoint](ctx, s.c, iotPath+"/metrics/"+url.PathEscape(id)+"/data", q.values())
}

func (s *IoTAnalyticsService) Dashboards(ctx context.Context, params ListParams) (envelope.Page[Dashboard], error) {
	return getPage[Dashboard](ctx, s.c, iotPath+"/dashboards", params)
}

func (s *IoTAnalyticsService) Dashboard(ctx context.Context, id string) (*Dashboard, error) {
	return one[Dashboard](ctx, s.c, http.MethodGet, iotPath+"/dashboards/"+url.PathEscape(id), nil)
}

func (s *IoTAnalyticsService) Overview(ctx context.Context) (*Overview, error) {
	return one[Overview](ctx, s.c, http.MethodGet, iotPath+"/overview", nil)
}
