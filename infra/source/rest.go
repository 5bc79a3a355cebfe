package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kilianp07/evtariff/auth"
	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricing"
)

var _ pricing.DataSource = (*RESTSource)(nil)

// RESTConfig configures a PostgREST-compatible tariff API.
type RESTConfig struct {
	BaseURL string `json:"base_url"`
	// APIKey is sent as the "apikey" header and as a bearer token when no
	// client credentials are configured.
	APIKey  string        `json:"api_key"`
	Auth    auth.Conf     `json:"auth"`
	Timeout time.Duration `json:"timeout"`
	// StationKey is the column matched against station ids.
	StationKey string `json:"station_key"`
}

// RESTSource reads tariff records from the stations, client_tariffs,
// tariff_rules and tariff_plans resources.
type RESTSource struct {
	base       *url.URL
	apiKey     string
	creds      *auth.ClientCred
	client     *http.Client
	stationKey string
}

// NewRESTSource validates cfg and builds the source.
func NewRESTSource(cfg RESTConfig) (*RESTSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rest source: base_url is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("rest source: base_url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.StationKey == "" {
		cfg.StationKey = "serial_number"
	}
	s := &RESTSource{
		base:       base,
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: cfg.Timeout},
		stationKey: cfg.StationKey,
	}
	if cfg.Auth.Enabled() {
		s.creds = auth.NewClientCred(cfg.Auth)
	}
	return s, nil
}

const stationColumns = "id,serial_number,price_per_kwh,session_fee,currency,tariff_plan_id,location_id"

func (s *RESTSource) GetStation(ctx context.Context, stationID string) (*model.Station, error) {
	q := url.Values{}
	q.Set("select", stationColumns)
	q.Set(s.stationKey, "eq."+stationID)
	q.Set("limit", "1")
	var rows []model.Station
	if err := s.get(ctx, "stations", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, model.ErrNotFound
	}
	return &rows[0], nil
}

func (s *RESTSource) GetActiveClientTariff(ctx context.Context, clientID string, now time.Time) (*model.ClientTariff, error) {
	ts := now.UTC().Format(time.RFC3339)
	q := url.Values{}
	q.Set("select", "*")
	q.Set("client_id", "eq."+clientID)
	q.Set("is_active", "eq.true")
	q.Set("valid_from", "lte."+ts)
	q.Set("or", fmt.Sprintf("(valid_until.is.null,valid_until.gte.%s)", ts))
	q.Set("order", "valid_from.desc")
	q.Set("limit", "1")
	var rows []model.ClientTariff
	if err := s.get(ctx, "client_tariffs", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *RESTSource) GetActiveRules(ctx context.Context, planID string) ([]model.TariffRule, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("tariff_plan_id", "eq."+planID)
	q.Set("is_active", "eq.true")
	q.Set("order", "priority.desc")
	var rules []model.TariffRule
	if err := s.get(ctx, "tariff_rules", q, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *RESTSource) GetTariffPlan(ctx context.Context, planID string) (*model.TariffPlan, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+planID)
	q.Set("limit", "1")
	var rows []model.TariffPlan
	if err := s.get(ctx, "tariff_plans", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, model.ErrNotFound
	}
	return &rows[0], nil
}

func (s *RESTSource) get(ctx context.Context, resource string, q url.Values, out any) error {
	u := *s.base
	u.Path += "/" + resource
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
	}
	switch {
	case s.creds != nil:
		if err := s.creds.SetAuthHeader(ctx, req); err != nil {
			return fmt.Errorf("rest source: %w", err)
		}
	case s.apiKey != "":
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("rest source: %s: %w", resource, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("rest source: %s: status %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rest source: decode %s: %w", resource, err)
	}
	return nil
}
