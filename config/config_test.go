package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricing"
	"github.com/kilianp07/evtariff/infra/mqtt"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `pricing:
  default_rate: 12
  default_currency: "KGS"
  timezone: "Asia/Bishkek"
  sample_hours:
    - hour: 7
      label: "Rush"
cache:
  memory_ttl: "2m"
  sweep_interval: "1h"
store:
  type: "badger"
  conf:
    path: "/var/lib/evtariff"
source:
  type: "postgrest"
  conf:
    base_url: "https://db.example.com/rest/v1"
metrics:
  sinks:
    - type: "prometheus"
mqtt:
  broker: "tcp://localhost:1883"
  qos: 1
logging:
  level: "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"default_rate", cfg.Pricing.DefaultRate, 12.0},
		{"timezone", cfg.Pricing.Timezone, "Asia/Bishkek"},
		{"sample_hours", len(cfg.Pricing.SampleHours), 1},
		{"memory_ttl", cfg.Cache.MemoryTTL, 2 * time.Minute},
		{"offline_ttl default", cfg.Cache.OfflineTTL, 24 * time.Hour},
		{"favorites_ttl default", cfg.Cache.FavoritesTTL, 7 * 24 * time.Hour},
		{"sweep_interval", cfg.Cache.SweepInterval, time.Hour},
		{"store.type", cfg.Store.Type, "badger"},
		{"store.path", cfg.Store.Conf["path"], "/var/lib/evtariff"},
		{"source.type", cfg.Source.Type, "postgrest"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "prometheus", true},
		{"mqtt.topic default", cfg.MQTT.Topic, mqtt.DefaultTopic},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
		{"logging.level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	loc, err := cfg.Pricing.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bishkek", loc.String())
	assert.Equal(t, 2*time.Minute, cfg.Cache.PriceCache().MemoryTTL)
}

func TestLoadJSONWithDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{"source":{"type":"static","conf":{"path":"fixtures.yaml"}}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRatePerKWh, cfg.Pricing.DefaultRate)
	assert.Equal(t, model.DefaultCurrency, cfg.Pricing.DefaultCurrency)
	assert.Equal(t, pricing.DefaultSampleHours, cfg.Pricing.SampleHours)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Store.Type)
	assert.False(t, cfg.MQTT.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "source:\n  type: static\ncache:\n  memory_ttl: 2m\n")
	t.Setenv("EVT_CACHE__MEMORY_TTL", "30s")
	t.Setenv("EVT_LOGGING__LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Cache.MemoryTTL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"no source":    "pricing:\n  default_rate: 1\n",
		"negative":     "source:\n  type: static\npricing:\n  default_rate: -1\n",
		"bad currency": "source:\n  type: static\npricing:\n  default_currency: euro\n",
		"bad timezone": "source:\n  type: static\npricing:\n  timezone: Mars/Olympus\n",
		"bad hour":     "source:\n  type: static\npricing:\n  sample_hours:\n    - hour: 24\n",
		"bad level":    "source:\n  type: static\nlogging:\n  level: loud\n",
		"negative ttl": "source:\n  type: static\ncache:\n  sweep_interval: -1m\n",
		"sink type":    "source:\n  type: static\nmetrics:\n  sinks:\n    - conf: {}\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}
	_, err := Load(writeFile(t, "config.toml", ""))
	assert.Error(t, err)
}
