package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"

	pkgerrors "github.com/anmar534/tender-pricing-engine/pkg/errors"
)

// EnvPrefix namespaces every engine environment variable.
const EnvPrefix = "TENDERPRICING"

// Environment variable names, exported for tests and host wiring.
const (
	EnvLogLevel           = "TENDERPRICING_LOG_LEVEL"
	EnvLogWarnStack       = "TENDERPRICING_LOG_WARN_STACK"
	EnvAdminPercent       = "TENDERPRICING_ADMIN_PERCENT"
	EnvOperationalPercent = "TENDERPRICING_OPERATIONAL_PERCENT"
	EnvProfitPercent      = "TENDERPRICING_PROFIT_PERCENT"
	EnvVATRate            = "TENDERPRICING_VAT_RATE"
)

type Config struct {
	App     AppConfig
	Pricing PricingConfig
}

type AppConfig struct {
	LogLevel     string `envconfig:"TENDERPRICING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TENDERPRICING_LOG_WARN_STACK" default:"false"`
}

// Percentages holds the add-on percentages applied on top of an item's
// base cost subtotal. Values are whole percents, e.g. 10 means 10%.
type Percentages struct {
	Administrative float64 `envconfig:"TENDERPRICING_ADMIN_PERCENT" default:"5" validate:"gte=0,lte=100"`
	Operational    float64 `envconfig:"TENDERPRICING_OPERATIONAL_PERCENT" default:"5" validate:"gte=0,lte=100"`
	Profit         float64 `envconfig:"TENDERPRICING_PROFIT_PERCENT" default:"10" validate:"gte=0,lte=100"`
}

// Total returns the combined add-on percentage.
func (p Percentages) Total() float64 {
	return p.Administrative + p.Operational + p.Profit
}

// PricingConfig is the validated configuration consumed by the engine.
type PricingConfig struct {
	Percentages
	VATRate float64 `envconfig:"TENDERPRICING_VAT_RATE" default:"0.15" validate:"gte=0,lte=1"`
}

// DefaultPercentages returns the stock add-on percentages used when the
// host supplies no configuration of its own.
func DefaultPercentages() Percentages {
	return Percentages{Administrative: 5, Operational: 5, Profit: 10}
}

// Load reads configuration from the environment (plus an optional .env
// file) and validates it. Out-of-range percentages or a negative VAT
// rate are contract violations and fail hard.
func Load() (*Config, error) {
	// Missing .env is fine; the environment is the source of truth.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks every percentage is within [0,100] and the VAT rate
// within [0,1], aggregating all violations into one error.
func (c *Config) Validate() error {
	return wrapValidation(validate.Struct(c))
}

// ValidatePricing applies the same range checks to a standalone
// PricingConfig assembled in code rather than from the environment.
func ValidatePricing(cfg PricingConfig) error {
	return wrapValidation(validate.Struct(cfg))
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validating config")
	}

	var combined error
	for _, fe := range verrs {
		combined = multierr.Append(combined, fmt.Errorf("%s %s", fe.Namespace(), validationMessage(fe)))
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "invalid pricing configuration")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}
