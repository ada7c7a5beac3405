package strategy

import (
	"errors"
)

// Exit rule type names accepted in configuration.
const (
	TypeFixedTPSL = "fixed_tp_sl"
	TypeFlowRatio = "flow_ratio"
)

// Factory errors
var (
	ErrUnknownRuleType    = errors.New("unknown exit rule type")
	ErrMissingTakeProfit  = errors.New("fixed_tp_sl requires take_profit_pct")
	ErrMissingStopLoss    = errors.New("fixed_tp_sl requires stop_loss_pct")
	ErrMissingEMASpan     = errors.New("flow_ratio requires ema_span")
	ErrMissingRatioLimit  = errors.New("flow_ratio requires ratio_threshold")
	ErrNonPositiveEMASpan = errors.New("flow_ratio ema_span must be positive")
)

// Config declares an exit rule. The tuning values are experiment inputs,
// never hard-coded: every run names its own thresholds.
type Config struct {
	Type           string   `yaml:"type" json:"type"`
	TakeProfitPct  *float64 `yaml:"take_profit_pct,omitempty" json:"take_profit_pct,omitempty"`
	StopLossPct    *float64 `yaml:"stop_loss_pct,omitempty" json:"stop_loss_pct,omitempty"`
	EMASpan        *int     `yaml:"ema_span,omitempty" json:"ema_span,omitempty"`
	RatioThreshold *float64 `yaml:"ratio_threshold,omitempty" json:"ratio_threshold,omitempty"`
}

// FromConfig creates an ExitRule from Config. Validates required
// parameters per rule type and returns clear errors for missing params.
func FromConfig(cfg Config) (ExitRule, error) {
	switch cfg.Type {
	case TypeFixedTPSL:
		if cfg.TakeProfitPct == nil {
			return nil, ErrMissingTakeProfit
		}
		if cfg.StopLossPct == nil {
			return nil, ErrMissingStopLoss
		}
		return NewFixedTPSLRule(*cfg.TakeProfitPct, *cfg.StopLossPct), nil

	case TypeFlowRatio:
		if cfg.EMASpan == nil {
			return nil, ErrMissingEMASpan
		}
		if *cfg.EMASpan <= 0 {
			return nil, ErrNonPositiveEMASpan
		}
		if cfg.RatioThreshold == nil {
			return nil, ErrMissingRatioLimit
		}
		return NewFlowRatioRule(*cfg.EMASpan, *cfg.RatioThreshold), nil

	default:
		return nil, ErrUnknownRuleType
	}
}
