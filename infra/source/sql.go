package source

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricing"
)

var _ pricing.DataSource = (*SQLSource)(nil)

// SQLConfig selects a database holding the stations, client_tariffs,
// tariff_rules and tariff_plans tables.
type SQLConfig struct {
	Driver       string `json:"driver"`
	DSN          string `json:"dsn"`
	AutoMigrate  bool   `json:"auto_migrate"`
	MaxOpenConns int    `json:"max_open_conns"`
	StationKey   string `json:"station_key"`
}

func dialect(cfg SQLConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN), nil
	case "sqlite", "":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported %s driver", cfg.Driver)
	}
}

// SQLSource reads tariff records through gorm.
type SQLSource struct {
	db         *gorm.DB
	stationKey string
}

// OpenSQL connects to the configured database.
func OpenSQL(cfg SQLConfig) (*SQLSource, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sql source: dsn is required")
	}
	d, err := dialect(cfg)
	if err != nil {
		return nil, fmt.Errorf("sql source: %w", err)
	}
	db, err := gorm.Open(d, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("sql source: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(&stationRow{}, &planRow{}, &ruleRow{}, &clientTariffRow{}); err != nil {
			return nil, fmt.Errorf("sql source: migrate: %w", err)
		}
	}
	key := cfg.StationKey
	if key == "" {
		key = "serial_number"
	}
	return &SQLSource{db: db, stationKey: key}, nil
}

// NewSQLSource wraps an existing connection.
func NewSQLSource(db *gorm.DB) *SQLSource {
	return &SQLSource{db: db, stationKey: "serial_number"}
}

// DB exposes the underlying connection.
func (s *SQLSource) DB() *gorm.DB { return s.db }

// Close releases the connection pool.
func (s *SQLSource) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLSource) GetStation(ctx context.Context, stationID string) (*model.Station, error) {
	var rows []stationRow
	err := s.db.WithContext(ctx).
		Where(s.stationKey+" = ?", stationID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sql source: stations: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.ErrNotFound
	}
	st := rows[0].model()
	return &st, nil
}

func (s *SQLSource) GetActiveClientTariff(ctx context.Context, clientID string, now time.Time) (*model.ClientTariff, error) {
	now = now.UTC()
	var rows []clientTariffRow
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND is_active = ? AND valid_from <= ?", clientID, true, now).
		Where("valid_until IS NULL OR valid_until >= ?", now).
		Order("valid_from desc").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sql source: client_tariffs: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ct := rows[0].model()
	return &ct, nil
}

func (s *SQLSource) GetActiveRules(ctx context.Context, planID string) ([]model.TariffRule, error) {
	var rows []ruleRow
	err := s.db.WithContext(ctx).
		Where("tariff_plan_id = ? AND is_active = ?", planID, true).
		Order("priority desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sql source: tariff_rules: %w", err)
	}
	rules := make([]model.TariffRule, 0, len(rows))
	for _, r := range rows {
		rules = append(rules, r.model())
	}
	return rules, nil
}

func (s *SQLSource) GetTariffPlan(ctx context.Context, planID string) (*model.TariffPlan, error) {
	var rows []planRow
	err := s.db.WithContext(ctx).Where("id = ?", planID).Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sql source: tariff_plans: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.ErrNotFound
	}
	p := rows[0].model()
	return &p, nil
}

type stationRow struct {
	ID           string   `gorm:"primaryKey"`
	SerialNumber string   `gorm:"index"`
	PricePerKWh  *float64 `gorm:"column:price_per_kwh"`
	SessionFee   *float64
	Currency     *string
	TariffPlanID *string
	LocationID   *string
}

func (stationRow) TableName() string { return "stations" }

func (r stationRow) model() model.Station {
	return model.Station{
		ID:           r.ID,
		SerialNumber: r.SerialNumber,
		PricePerKWh:  r.PricePerKWh,
		SessionFee:   r.SessionFee,
		Currency:     str(r.Currency),
		TariffPlanID: str(r.TariffPlanID),
		LocationID:   str(r.LocationID),
	}
}

type planRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Description *string
	IsDefault   bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (planRow) TableName() string { return "tariff_plans" }

func (r planRow) model() model.TariffPlan {
	return model.TariffPlan{
		ID:          r.ID,
		Name:        r.Name,
		Description: str(r.Description),
		IsDefault:   r.IsDefault,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type ruleRow struct {
	ID                  string `gorm:"primaryKey"`
	TariffPlanID        string `gorm:"index"`
	Name                string
	Description         *string
	ConnectorType       string
	PowerMin            *float64
	PowerMax            *float64
	TimeStart           *timeOfDay
	TimeEnd             *timeOfDay
	DaysOfWeek          intList
	IsWeekend           *bool
	Price               float64
	PricePerMinute      *float64
	SessionFee          *float64
	ParkingFeePerMinute *float64
	Currency            *string
	Priority            int
	IsActive            bool
	ValidFrom           *time.Time
	ValidUntil          *time.Time
	MinDurationMinutes  *int
	MaxDurationMinutes  *int
}

func (ruleRow) TableName() string { return "tariff_rules" }

func (r ruleRow) model() model.TariffRule {
	return model.TariffRule{
		ID:                  r.ID,
		TariffPlanID:        r.TariffPlanID,
		Name:                r.Name,
		Description:         str(r.Description),
		ConnectorType:       r.ConnectorType,
		PowerMin:            r.PowerMin,
		PowerMax:            r.PowerMax,
		TimeStart:           r.TimeStart.model(),
		TimeEnd:             r.TimeEnd.model(),
		DaysOfWeek:          r.DaysOfWeek,
		IsWeekend:           r.IsWeekend,
		Price:               r.Price,
		PricePerMinute:      r.PricePerMinute,
		SessionFee:          r.SessionFee,
		ParkingFeePerMinute: r.ParkingFeePerMinute,
		Currency:            str(r.Currency),
		Priority:            r.Priority,
		IsActive:            r.IsActive,
		ValidFrom:           r.ValidFrom,
		ValidUntil:          r.ValidUntil,
		MinDurationMinutes:  r.MinDurationMinutes,
		MaxDurationMinutes:  r.MaxDurationMinutes,
	}
}

type clientTariffRow struct {
	ID                 string `gorm:"primaryKey"`
	ClientID           string `gorm:"index"`
	TariffPlanID       *string
	DiscountPercent    *float64
	FixedRatePerKWh    *float64 `gorm:"column:fixed_rate_per_kwh"`
	FixedRatePerMinute *float64
	SessionFee         *float64
	ValidFrom          time.Time
	ValidUntil         *time.Time
	IsActive           bool
	Description        *string
}

func (clientTariffRow) TableName() string { return "client_tariffs" }

func (r clientTariffRow) model() model.ClientTariff {
	return model.ClientTariff{
		ID:                 r.ID,
		ClientID:           r.ClientID,
		TariffPlanID:       str(r.TariffPlanID),
		DiscountPercent:    r.DiscountPercent,
		FixedRatePerKWh:    r.FixedRatePerKWh,
		FixedRatePerMinute: r.FixedRatePerMinute,
		SessionFee:         r.SessionFee,
		ValidFrom:          r.ValidFrom,
		ValidUntil:         r.ValidUntil,
		IsActive:           r.IsActive,
		Description:        str(r.Description),
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// intList scans Postgres arrays ("{1,2}") and JSON-style lists ("[1,2]").
type intList []int

func (intList) GormDataType() string { return "text" }

func (l *intList) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("days_of_week: unsupported type %T", src)
	}
	s = strings.Trim(strings.TrimSpace(s), "{}[]")
	if s == "" {
		*l = nil
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(intList, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("days_of_week: %w", err)
		}
		out = append(out, n)
	}
	*l = out
	return nil
}

func (l intList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	parts := make([]string, len(l))
	for i, n := range l {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}

// timeOfDay scans SQL time columns.
type timeOfDay model.TimeOfDay

func (timeOfDay) GormDataType() string { return "text" }

func (t *timeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case time.Time:
		*t = timeOfDay(model.TimeOfDayOf(v))
		return nil
	default:
		return fmt.Errorf("time of day: unsupported type %T", src)
	}
}

func (t *timeOfDay) parse(s string) error {
	// Postgres may append fractional seconds.
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	v, err := model.ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = timeOfDay(v)
	return nil
}

func (t timeOfDay) Value() (driver.Value, error) {
	return model.TimeOfDay(t).String(), nil
}

func (t *timeOfDay) model() *model.TimeOfDay {
	if t == nil {
		return nil
	}
	v := model.TimeOfDay(*t)
	return &v
}
