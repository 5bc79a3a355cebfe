package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evtariff/auth"
	"github.com/kilianp07/evtariff/core/model"
)

func postgrest(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return srv
}

func TestRESTGetStation(t *testing.T) {
	srv := postgrest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/stations", r.URL.Path)
		assert.Equal(t, "eq.EVI-0001", r.URL.Query().Get("serial_number"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		if r.URL.Query().Get("serial_number") == "eq.EVI-0001" {
			_, _ = w.Write([]byte(`[{"id":"st-1","serial_number":"EVI-0001","price_per_kwh":11.5,"currency":"KGS","tariff_plan_id":"plan-1"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	src, err := NewRESTSource(RESTConfig{BaseURL: srv.URL + "/rest/v1/", APIKey: "anon-key"})
	require.NoError(t, err)

	st, err := src.GetStation(context.Background(), "EVI-0001")
	require.NoError(t, err)
	assert.Equal(t, "st-1", st.ID)
	assert.Equal(t, 11.5, *st.PricePerKWh)
	assert.Equal(t, "plan-1", st.TariffPlanID)
}

func TestRESTStationNotFound(t *testing.T) {
	srv := postgrest(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	src, err := NewRESTSource(RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = src.GetStation(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRESTClientTariffQuery(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	srv := postgrest(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/client_tariffs", r.URL.Path)
		assert.Equal(t, "eq.u-1", q.Get("client_id"))
		assert.Equal(t, "eq.true", q.Get("is_active"))
		assert.Equal(t, "lte.2024-06-03T12:00:00Z", q.Get("valid_from"))
		assert.Equal(t, "(valid_until.is.null,valid_until.gte.2024-06-03T12:00:00Z)", q.Get("or"))
		if q.Get("client_id") == "eq.u-1" {
			_, _ = w.Write([]byte(`[{"id":"ct-1","client_id":"u-1","discount_percent":15,"tariff_plan_id":"plan-1","valid_from":"2024-01-01T00:00:00Z","is_active":true}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	src, err := NewRESTSource(RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	ct, err := src.GetActiveClientTariff(context.Background(), "u-1", now)
	require.NoError(t, err)
	require.NotNil(t, ct)
	assert.Equal(t, 15.0, ct.Discount())
	assert.True(t, ct.ValidAt(now))

	ct, err = src.GetActiveClientTariff(context.Background(), "u-2", now)
	require.NoError(t, err)
	assert.Nil(t, ct)
}

func TestRESTActiveRules(t *testing.T) {
	srv := postgrest(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/tariff_rules", r.URL.Path)
		assert.Equal(t, "eq.plan-1", q.Get("tariff_plan_id"))
		assert.Equal(t, "priority.desc", q.Get("order"))
		_, _ = w.Write([]byte(`[
			{"id":"r-night","tariff_plan_id":"plan-1","name":"Night","connector_type":"ALL","time_start":"22:00:00","time_end":"06:00:00","price":5,"priority":10,"is_active":true},
			{"id":"r-day","tariff_plan_id":"plan-1","name":"Day","connector_type":"ALL","days_of_week":[1,2,3,4,5],"price":10,"priority":0,"is_active":true}
		]`))
	})
	src, err := NewRESTSource(RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	rules, err := src.GetActiveRules(context.Background(), "plan-1")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, model.MustTimeOfDay("22:00"), *rules[0].TimeStart)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, rules[1].DaysOfWeek)
}

func TestRESTTariffPlan(t *testing.T) {
	srv := postgrest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.plan-1", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`[{"id":"plan-1","name":"Standard","is_active":true}]`))
	})
	src, err := NewRESTSource(RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	plan, err := src.GetTariffPlan(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "Standard", plan.Name)
}

func TestRESTServerError(t *testing.T) {
	srv := postgrest(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "relation does not exist", http.StatusInternalServerError)
	})
	src, err := NewRESTSource(RESTConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = src.GetActiveRules(context.Background(), "plan-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestRESTClientCredentials(t *testing.T) {
	var tokens atomic.Int32
	srv := postgrest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			tokens.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"svc-token","token_type":"bearer","expires_in":3600}`))
			return
		}
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	})
	src, err := NewRESTSource(RESTConfig{
		BaseURL: srv.URL,
		Auth:    auth.Conf{ClientID: "id", ClientSecret: "secret", AuthURL: srv.URL + "/token"},
	})
	require.NoError(t, err)

	_, err = src.GetActiveRules(context.Background(), "p")
	require.NoError(t, err)
	_, err = src.GetActiveRules(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, int32(1), tokens.Load())
}

func TestNewRESTSourceValidation(t *testing.T) {
	_, err := NewRESTSource(RESTConfig{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "base_url"))
}
