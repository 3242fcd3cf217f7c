package model

import (
	"errors"
	"fmt"
)

// AgentParameters is the validated battery and market configuration of an
// agent. Values are immutable once built.
type AgentParameters struct {
	MinDis    float64 `json:"min_dis" yaml:"min_dis"`
	MaxDis    float64 `json:"max_dis" yaml:"max_dis"`
	MinCha    float64 `json:"min_cha" yaml:"min_cha"`
	MaxCha    float64 `json:"max_cha" yaml:"max_cha"`
	ThresDown float64 `json:"thres_down" yaml:"thres_down"`
	ThresUp   float64 `json:"thres_up" yaml:"thres_up"`
	// BattEff is carried through but not used by any constraint.
	BattEff  float64 `json:"batt_eff" yaml:"batt_eff"`
	MaxBuy   float64 `json:"max_buy" yaml:"max_buy"`
	MaxSell  float64 `json:"max_sell" yaml:"max_sell"`
	InitSOC  float64 `json:"initSOC" yaml:"initSOC"`
	EndSOC   float64 `json:"endSOC" yaml:"endSOC"`
	Horizont int     `json:"horizont" yaml:"horizont"`
}

// RawParameters mirrors AgentParameters with optional fields so that a
// missing key can be told apart from a zero value.
type RawParameters struct {
	MinDis    *float64 `json:"min_dis" yaml:"min_dis"`
	MaxDis    *float64 `json:"max_dis" yaml:"max_dis"`
	MinCha    *float64 `json:"min_cha" yaml:"min_cha"`
	MaxCha    *float64 `json:"max_cha" yaml:"max_cha"`
	ThresDown *float64 `json:"thres_down" yaml:"thres_down"`
	ThresUp   *float64 `json:"thres_up" yaml:"thres_up"`
	BattEff   *float64 `json:"batt_eff" yaml:"batt_eff"`
	MaxBuy    *float64 `json:"max_buy" yaml:"max_buy"`
	MaxSell   *float64 `json:"max_sell" yaml:"max_sell"`
	InitSOC   *float64 `json:"initSOC" yaml:"initSOC"`
	EndSOC    *float64 `json:"endSOC" yaml:"endSOC"`
	Horizont  *int     `json:"horizont" yaml:"horizont"`
}

// Build converts the raw values into AgentParameters. Every missing
// required field and every range violation is reported.
func (r RawParameters) Build() (AgentParameters, error) {
	var errs []error
	req := func(name string, v *float64) float64 {
		if v == nil {
			errs = append(errs, &ConfigError{Field: name, Reason: "missing"})
			return 0
		}
		return *v
	}
	p := AgentParameters{
		MinDis:    req("min_dis", r.MinDis),
		MaxDis:    req("max_dis", r.MaxDis),
		MinCha:    req("min_cha", r.MinCha),
		MaxCha:    req("max_cha", r.MaxCha),
		ThresDown: req("thres_down", r.ThresDown),
		ThresUp:   req("thres_up", r.ThresUp),
		MaxBuy:    req("max_buy", r.MaxBuy),
		MaxSell:   req("max_sell", r.MaxSell),
		InitSOC:   req("initSOC", r.InitSOC),
		EndSOC:    req("endSOC", r.EndSOC),
		BattEff:   1,
	}
	if r.BattEff != nil {
		p.BattEff = *r.BattEff
	}
	if r.Horizont == nil {
		errs = append(errs, &ConfigError{Field: "horizont", Reason: "missing"})
	} else {
		p.Horizont = *r.Horizont
	}
	if len(errs) > 0 {
		return AgentParameters{}, errors.Join(errs...)
	}
	if err := p.Validate(); err != nil {
		return AgentParameters{}, err
	}
	return p, nil
}

// Validate checks value ranges and the consistency between bounds.
func (p AgentParameters) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}
	if p.Horizont <= 0 {
		bad("horizont", "must be positive, got %d", p.Horizont)
	}
	if p.MinDis < 0 || p.MaxDis < p.MinDis {
		bad("max_dis", "need 0 <= min_dis <= max_dis, got %g..%g", p.MinDis, p.MaxDis)
	}
	if p.MinCha < 0 || p.MaxCha < p.MinCha {
		bad("max_cha", "need 0 <= min_cha <= max_cha, got %g..%g", p.MinCha, p.MaxCha)
	}
	if p.ThresDown < 0 || p.ThresUp < p.ThresDown {
		bad("thres_up", "need 0 <= thres_down <= thres_up, got %g..%g", p.ThresDown, p.ThresUp)
	}
	if p.MaxBuy < 0 {
		bad("max_buy", "must not be negative")
	}
	if p.MaxSell < 0 {
		bad("max_sell", "must not be negative")
	}
	if p.InitSOC < p.ThresDown || p.InitSOC > p.ThresUp {
		bad("initSOC", "%g outside capacity bounds [%g, %g]", p.InitSOC, p.ThresDown, p.ThresUp)
	}
	if p.EndSOC < p.ThresDown || p.EndSOC > p.ThresUp {
		bad("endSOC", "%g outside capacity bounds [%g, %g]", p.EndSOC, p.ThresDown, p.ThresUp)
	}
	if p.BattEff <= 0 || p.BattEff > 1 {
		bad("batt_eff", "must be in (0, 1], got %g", p.BattEff)
	}
	return errors.Join(errs...)
}
