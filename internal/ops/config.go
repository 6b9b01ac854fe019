// Package ops loads and resolves the strategy runtime configuration.
package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/coordinator"
	"main/internal/errors"
	"main/internal/model/enum"
	"main/internal/secref"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Strategy      StrategyConfig      `json:"strategy"`
	Instruments   []InstrumentConfig  `json:"instruments"`
	Venue         VenueConfig         `json:"venue"`
	Persistence   PersistenceConfig   `json:"persistence"`
	Observability ObservabilityConfig `json:"observability"`
}

// StrategyConfig defines the exit behavior of one strategy instance.
type StrategyConfig struct {
	Name          string `json:"name"`
	StopLossPct   string `json:"stopLossPct"`
	TakeProfitPct string `json:"takeProfitPct"`
	StopMode      string `json:"stopMode"`
	// TimeframeMinutes is the bar size the close time is gridded on.
	TimeframeMinutes int `json:"timeframeMinutes"`
	BarsToClose      int `json:"barsToClose"`
	// StopAt is an optional RFC3339 instant for an intraday shutdown.
	StopAt         string `json:"stopAt"`
	CloseAllOnStop bool   `json:"closeAllOnStop"`
	QueueCapacity  int    `json:"queueCapacity"`
}

// InstrumentConfig describes one tradable instrument.
type InstrumentConfig struct {
	Code     string `json:"code"`
	TickSize string `json:"tickSize"`
	MinPrice string `json:"minPrice"`
	MaxPrice string `json:"maxPrice"`
}

// VenueConfig describes the execution venue's capabilities.
type VenueConfig struct {
	NativeConditional bool `json:"nativeConditional"`
}

// PersistenceConfig selects the snapshot backend.
type PersistenceConfig struct {
	// Backend is "file" or "postgres".
	Backend string `json:"backend"`
	Dir     string `json:"dir"`
	DSN     string `json:"dsn"`
}

// ObservabilityConfig captures the optional telemetry endpoints.
type ObservabilityConfig struct {
	MetricsAddr     string `json:"metricsAddr"`
	PyroscopeServer string `json:"pyroscopeServer"`
}

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Coordinator   coordinator.Config
	Directory     *secref.Directory
	Venue         VenueConfig
	Persistence   PersistenceConfig
	Observability ObservabilityConfig
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config")
	}
	return Resolve(cfg)
}

// Resolve validates the raw config and builds the runtime forms.
func Resolve(cfg FileConfig) (Loaded, error) {
	coord, err := resolveStrategy(cfg.Strategy)
	if err != nil {
		return Loaded{}, err
	}
	dir, err := buildDirectory(cfg.Instruments)
	if err != nil {
		return Loaded{}, err
	}
	switch cfg.Persistence.Backend {
	case BackendFile, BackendPostgres:
	case "":
		cfg.Persistence.Backend = BackendFile
	default:
		return Loaded{}, errors.Newf("unknown persistence backend %q", cfg.Persistence.Backend)
	}
	return Loaded{
		Coordinator:   coord,
		Directory:     dir,
		Venue:         cfg.Venue,
		Persistence:   cfg.Persistence,
		Observability: cfg.Observability,
	}, nil
}

func resolveStrategy(cfg StrategyConfig) (coordinator.Config, error) {
	if cfg.Name == "" {
		return coordinator.Config{}, errors.New("strategy name is required")
	}

	stopLoss, err := parsePct(cfg.StopLossPct)
	if err != nil {
		return coordinator.Config{}, errors.Wrap(err, "stopLossPct")
	}
	takeProfit, err := parsePct(cfg.TakeProfitPct)
	if err != nil {
		return coordinator.Config{}, errors.Wrap(err, "takeProfitPct")
	}

	mode := enum.StopModeMarketLimitOffer
	if cfg.StopMode != "" {
		var ok bool
		mode, ok = enum.StopModeFromString(cfg.StopMode)
		if !ok {
			return coordinator.Config{}, errors.Newf("unknown stop mode %q", cfg.StopMode)
		}
	}

	var stopAt time.Time
	if cfg.StopAt != "" {
		stopAt, err = time.Parse(time.RFC3339, cfg.StopAt)
		if err != nil {
			return coordinator.Config{}, errors.Wrap(err, "stopAt")
		}
	}

	if cfg.BarsToClose > 0 && cfg.TimeframeMinutes <= 0 {
		return coordinator.Config{}, errors.New("timeframeMinutes is required when barsToClose is set")
	}

	return coordinator.Config{
		Strategy:       cfg.Name,
		StopLossPct:    stopLoss,
		TakeProfitPct:  takeProfit,
		StopMode:       mode,
		Timeframe:      time.Duration(cfg.TimeframeMinutes) * time.Minute,
		BarsToClose:    cfg.BarsToClose,
		StopAt:         stopAt,
		CloseAllOnStop: cfg.CloseAllOnStop,
		QueueCapacity:  cfg.QueueCapacity,
	}, nil
}

func buildDirectory(instruments []InstrumentConfig) (*secref.Directory, error) {
	if len(instruments) == 0 {
		return nil, errors.New("at least one instrument is required")
	}
	dir := secref.NewDirectory()
	for _, raw := range instruments {
		tick, err := decimal.NewFromString(raw.TickSize)
		if err != nil {
			return nil, errors.Wrapf(err, "instrument %s tickSize", raw.Code)
		}
		minPrice, err := parsePrice(raw.MinPrice)
		if err != nil {
			return nil, errors.Wrapf(err, "instrument %s minPrice", raw.Code)
		}
		maxPrice, err := parsePrice(raw.MaxPrice)
		if err != nil {
			return nil, errors.Wrapf(err, "instrument %s maxPrice", raw.Code)
		}
		err = dir.Add(secref.Instrument{
			Code:     raw.Code,
			TickSize: tick,
			MinPrice: minPrice,
			MaxPrice: maxPrice,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "instrument %s", raw.Code)
		}
	}
	return dir, nil
}

func parsePct(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, nil
	}
	pct, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if pct.IsNegative() {
		return decimal.Decimal{}, errors.New("percentage must not be negative")
	}
	return pct, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(s)
}
