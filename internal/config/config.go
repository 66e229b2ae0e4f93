// Package config defines the data structures related to configuration and
// includes functions for loading and checking a comparison input file.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/noi-analyzer/pkg/constants"
	"github.com/iwvelando/noi-analyzer/pkg/datetime"
	"github.com/iwvelando/noi-analyzer/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for one noi-analyzer comparison.
type Configuration struct {
	Logging  LoggingConfig  `yaml:"logging,omitempty" mapstructure:"logging"`
	Output   OutputConfig   `yaml:"output,omitempty" mapstructure:"output"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputfile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// AnalysisConfig names the property and its period figures.
type AnalysisConfig struct {
	Property string        `yaml:"property" mapstructure:"property"`
	Periods  PeriodsConfig `yaml:"periods" mapstructure:"periods"`
}

// PeriodsConfig holds one optional record per period role. Only current is
// required.
type PeriodsConfig struct {
	Current    *RecordConfig `yaml:"current,omitempty" mapstructure:"current"`
	PriorMonth *RecordConfig `yaml:"prior_month,omitempty" mapstructure:"prior_month"`
	Budget     *RecordConfig `yaml:"budget,omitempty" mapstructure:"budget"`
	PriorYear  *RecordConfig `yaml:"prior_year,omitempty" mapstructure:"prior_year"`
}

// RecordConfig holds the figures of one period. An omitted figure is unknown,
// which is different from an explicit 0.
type RecordConfig struct {
	Period      string   `yaml:"period,omitempty" mapstructure:"period"`
	GPR         *float64 `yaml:"gpr,omitempty" mapstructure:"gpr"`
	EGI         *float64 `yaml:"egi,omitempty" mapstructure:"egi"`
	VacancyLoss *float64 `yaml:"vacancy_loss,omitempty" mapstructure:"vacancy_loss"`
	OpEx        *float64 `yaml:"opex,omitempty" mapstructure:"opex"`
	NOI         *float64 `yaml:"noi,omitempty" mapstructure:"noi"`
}

// Entries returns the configured records keyed by period role name in
// current, prior_month, budget, prior_year order. Absent roles are skipped.
func (p PeriodsConfig) Entries() []PeriodEntry {
	candidates := []PeriodEntry{
		{Role: "current", Record: p.Current},
		{Role: "prior_month", Record: p.PriorMonth},
		{Role: "budget", Record: p.Budget},
		{Role: "prior_year", Record: p.PriorYear},
	}
	var entries []PeriodEntry
	for _, entry := range candidates {
		if entry.Record != nil {
			entries = append(entries, entry)
		}
	}
	return entries
}

// PeriodEntry pairs a role name with its configured record.
type PeriodEntry struct {
	Role   string
	Record *RecordConfig
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML (or JSON) configuration from a
// reader, e.g. an uploaded document.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	return decode(v)
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Figure-level checks run later on the converted records.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	if strings.TrimSpace(c.Analysis.Property) == "" {
		warnings = append(warnings, "No property name configured")
	}

	if c.Analysis.Periods.Current == nil {
		warnings = append(warnings, "No current period configured - comparison will fail")
	}

	for _, entry := range c.Analysis.Periods.Entries() {
		if entry.Record.Period == "" {
			continue
		}
		if _, err := datetime.ParsePeriod(entry.Record.Period); err != nil {
			warnings = append(warnings, fmt.Sprintf("Period '%s' for %s is not a recognized month label", entry.Record.Period, entry.Role))
		}
	}

	return warnings
}
