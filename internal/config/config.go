package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/retailpulse/retailpulse/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics" validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
	// AllowedOrigins lists dashboard origins allowed by CORS. "*" allows any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// TTL of a cached pipeline result
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Spec is a standard five field cron expression or a descriptor like @daily
	Spec string `mapstructure:"spec"`
}

// AnalyticsConfig holds every policy knob of the pipeline
type AnalyticsConfig struct {
	ReferenceDate ReferenceDateConfig `mapstructure:"reference_date"`
	RFM           RFMConfig           `mapstructure:"rfm"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Loyalty       LoyaltyConfig       `mapstructure:"loyalty"`
	Rules         RulesConfig         `mapstructure:"rules"`
	Effectiveness EffectivenessConfig `mapstructure:"effectiveness"`
}

type ReferenceDateConfig struct {
	Policy types.ReferenceDatePolicy `mapstructure:"policy" validate:"required"`
}

type RFMConfig struct {
	Policy types.SegmentationPolicy `mapstructure:"policy" validate:"required"`
	// Rules overrides the policy's decision table when not empty
	Rules []SegmentRuleConfig `mapstructure:"rules" validate:"dive"`
}

// SegmentRuleConfig is one row of a segment decision table. A zero bound
// leaves that side of the score range open.
type SegmentRuleConfig struct {
	Segment string `mapstructure:"segment" validate:"required"`
	RMin    int    `mapstructure:"r_min" validate:"gte=0,lte=5"`
	RMax    int    `mapstructure:"r_max" validate:"gte=0,lte=5"`
	FMin    int    `mapstructure:"f_min" validate:"gte=0,lte=5"`
	FMax    int    `mapstructure:"f_max" validate:"gte=0,lte=5"`
	MMin    int    `mapstructure:"m_min" validate:"gte=0,lte=5"`
	MMax    int    `mapstructure:"m_max" validate:"gte=0,lte=5"`
}

type LoyaltyConfig struct {
	RedemptionRate           float64              `mapstructure:"redemption_rate" validate:"gte=0,lte=1"`
	Tiers                    TierThresholds       `mapstructure:"tiers"`
	QuantityTiers            []QuantityTierConfig `mapstructure:"quantity_tiers" validate:"dive"`
	CategoryMultipliers      map[string]float64   `mapstructure:"category_multipliers"`
	ApplyCategoryMultipliers bool                 `mapstructure:"apply_category_multipliers"`
	ApplyCalendarPromotions  bool                 `mapstructure:"apply_calendar_promotions"`
	// Workers > 1 computes line points concurrently
	Workers int `mapstructure:"workers" validate:"gte=0"`
}

type TierThresholds struct {
	Platinum float64 `mapstructure:"platinum" validate:"gtefield=Gold"`
	Gold     float64 `mapstructure:"gold" validate:"gtefield=Silver"`
	Silver   float64 `mapstructure:"silver" validate:"gte=0"`
}

type QuantityTierConfig struct {
	MinQuantity int     `mapstructure:"min_quantity" validate:"gt=0"`
	Multiplier  float64 `mapstructure:"multiplier" validate:"gt=0"`
}

type RulesConfig struct {
	LowSalesPercentile         float64                       `mapstructure:"low_sales_percentile" validate:"gte=0,lte=100"`
	VeryLowSalesPercentile     float64                       `mapstructure:"very_low_sales_percentile" validate:"gte=0,lte=100,ltefield=LowSalesPercentile"`
	LowSalesDiscount           float64                       `mapstructure:"low_sales_discount" validate:"gte=0,lte=1"`
	VeryLowSalesDiscount       float64                       `mapstructure:"very_low_sales_discount" validate:"gte=0,lte=1"`
	IncludeUnsoldProducts      bool                          `mapstructure:"include_unsold_products"`
	InactiveDays               int                           `mapstructure:"inactive_days" validate:"gt=0"`
	InactiveBonusStepDays      int                           `mapstructure:"inactive_bonus_step_days" validate:"gt=0"`
	InactiveBonusPointsPerStep int                           `mapstructure:"inactive_bonus_points_per_step" validate:"gte=0"`
	InactiveDiscount           float64                       `mapstructure:"inactive_discount" validate:"gte=0,lte=1"`
	SegmentOffers              map[string]SegmentOfferConfig `mapstructure:"segment_offers"`
	SuggestionLimits           SuggestionLimitsConfig        `mapstructure:"suggestion_limits"`
	LowBalanceThreshold        float64                       `mapstructure:"low_balance_threshold" validate:"gte=0"`
	LowEngagementTransactions  int                           `mapstructure:"low_engagement_transactions" validate:"gte=0"`
	PromotionStacking          types.PromotionStackingPolicy `mapstructure:"promotion_stacking" validate:"required"`
	// CalendarFile points to a YAML list of promotion definitions replacing the built in calendar
	CalendarFile string `mapstructure:"calendar_file"`
}

type SegmentOfferConfig struct {
	BonusPoints    int     `mapstructure:"bonus_points" validate:"gte=0"`
	Discount       float64 `mapstructure:"discount" validate:"gte=0,lte=1"`
	Recommendation string  `mapstructure:"recommendation"`
	Action         string  `mapstructure:"action"`
}

type SuggestionLimitsConfig struct {
	LowSellers        int `mapstructure:"low_sellers" validate:"gte=0"`
	InactiveCustomers int `mapstructure:"inactive_customers" validate:"gte=0"`
}

type MetricsConfig struct {
	// TopCustomers bounds the highest spender rollup of a run. Zero lists
	// every customer.
	TopCustomers int `mapstructure:"top_customers" validate:"gte=0"`
}

type EffectivenessConfig struct {
	Weights           EffectivenessWeights `mapstructure:"weights"`
	TopUpliftProducts int                  `mapstructure:"top_uplift_products" validate:"gte=0"`
}

type EffectivenessWeights struct {
	AvgTransactionValue float64 `mapstructure:"avg_transaction_value" validate:"gte=0"`
	PointsPerSale       float64 `mapstructure:"points_per_sale" validate:"gte=0"`
	UnitsPerTransaction float64 `mapstructure:"units_per_transaction" validate:"gte=0"`
}

func NewConfig() (*Configuration, error) {
	// godotenv.Load will not override existing env variables
	_ = godotenv.Load()

	v := viper.New()

	// Modify config paths to ensure config.yaml is found
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/retailpulse")

	// Set up environment variables support
	v.SetEnvPrefix("RETAILPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if err := c.Analytics.ReferenceDate.Policy.Validate(); err != nil {
		return err
	}
	if err := c.Analytics.RFM.Policy.Validate(); err != nil {
		return err
	}
	if err := c.Analytics.Rules.PromotionStacking.Validate(); err != nil {
		return err
	}
	for class := range c.Analytics.Rules.SegmentOffers {
		if err := types.RetentionClass(class).Validate(); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("deployment.mode", d.Deployment.Mode)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("logging.level", d.Logging.Level)

	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", d.Postgres.Password)
	v.SetDefault("postgres.dbname", d.Postgres.DBName)
	v.SetDefault("postgres.sslmode", d.Postgres.SSLMode)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime_minutes", d.Postgres.ConnMaxLifetime)

	v.SetDefault("sentry.enabled", d.Sentry.Enabled)
	v.SetDefault("sentry.environment", d.Sentry.Environment)
	v.SetDefault("sentry.sample_rate", d.Sentry.SampleRate)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.default_expiration", d.Cache.DefaultExpiration)
	v.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)

	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.spec", d.Scheduler.Spec)

	a := d.Analytics
	v.SetDefault("analytics.reference_date.policy", a.ReferenceDate.Policy)
	v.SetDefault("analytics.rfm.policy", a.RFM.Policy)
	v.SetDefault("analytics.metrics.top_customers", a.Metrics.TopCustomers)

	v.SetDefault("analytics.loyalty.redemption_rate", a.Loyalty.RedemptionRate)
	v.SetDefault("analytics.loyalty.tiers.platinum", a.Loyalty.Tiers.Platinum)
	v.SetDefault("analytics.loyalty.tiers.gold", a.Loyalty.Tiers.Gold)
	v.SetDefault("analytics.loyalty.tiers.silver", a.Loyalty.Tiers.Silver)
	v.SetDefault("analytics.loyalty.quantity_tiers", a.Loyalty.QuantityTiers)
	v.SetDefault("analytics.loyalty.category_multipliers", a.Loyalty.CategoryMultipliers)
	v.SetDefault("analytics.loyalty.apply_category_multipliers", a.Loyalty.ApplyCategoryMultipliers)
	v.SetDefault("analytics.loyalty.apply_calendar_promotions", a.Loyalty.ApplyCalendarPromotions)
	v.SetDefault("analytics.loyalty.workers", a.Loyalty.Workers)

	r := a.Rules
	v.SetDefault("analytics.rules.low_sales_percentile", r.LowSalesPercentile)
	v.SetDefault("analytics.rules.very_low_sales_percentile", r.VeryLowSalesPercentile)
	v.SetDefault("analytics.rules.low_sales_discount", r.LowSalesDiscount)
	v.SetDefault("analytics.rules.very_low_sales_discount", r.VeryLowSalesDiscount)
	v.SetDefault("analytics.rules.include_unsold_products", r.IncludeUnsoldProducts)
	v.SetDefault("analytics.rules.inactive_days", r.InactiveDays)
	v.SetDefault("analytics.rules.inactive_bonus_step_days", r.InactiveBonusStepDays)
	v.SetDefault("analytics.rules.inactive_bonus_points_per_step", r.InactiveBonusPointsPerStep)
	v.SetDefault("analytics.rules.inactive_discount", r.InactiveDiscount)
	v.SetDefault("analytics.rules.segment_offers", r.SegmentOffers)
	v.SetDefault("analytics.rules.suggestion_limits.low_sellers", r.SuggestionLimits.LowSellers)
	v.SetDefault("analytics.rules.suggestion_limits.inactive_customers", r.SuggestionLimits.InactiveCustomers)
	v.SetDefault("analytics.rules.low_balance_threshold", r.LowBalanceThreshold)
	v.SetDefault("analytics.rules.low_engagement_transactions", r.LowEngagementTransactions)
	v.SetDefault("analytics.rules.promotion_stacking", r.PromotionStacking)

	e := a.Effectiveness
	v.SetDefault("analytics.effectiveness.weights.avg_transaction_value", e.Weights.AvgTransactionValue)
	v.SetDefault("analytics.effectiveness.weights.points_per_sale", e.Weights.PointsPerSale)
	v.SetDefault("analytics.effectiveness.weights.units_per_transaction", e.Weights.UnitsPerTransaction)
	v.SetDefault("analytics.effectiveness.top_uplift_products", e.TopUpliftProducts)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080", AllowedOrigins: []string{"*"}},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "retailpulse",
			Password:        "retailpulse",
			DBName:          "retailpulse",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30,
		},
		Sentry: SentryConfig{
			Environment: "local",
			SampleRate:  1.0,
		},
		Cache: CacheConfig{
			Enabled:           true,
			DefaultExpiration: 30 * time.Minute,
			CleanupInterval:   time.Hour,
		},
		Scheduler: SchedulerConfig{
			Spec: "@daily",
		},
		Analytics: DefaultAnalyticsConfig(),
	}
}

// DefaultAnalyticsConfig returns the stock pipeline policy
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		ReferenceDate: ReferenceDateConfig{Policy: types.ReferenceDateLatestTransaction},
		RFM:           RFMConfig{Policy: types.SegmentationPolicySixBucket},
		Metrics:       MetricsConfig{TopCustomers: 10},
		Loyalty: LoyaltyConfig{
			RedemptionRate: 0.20,
			Tiers: TierThresholds{
				Platinum: 5000,
				Gold:     3000,
				Silver:   1000,
			},
			QuantityTiers: []QuantityTierConfig{
				{MinQuantity: 10, Multiplier: 1.5},
				{MinQuantity: 5, Multiplier: 1.25},
			},
			CategoryMultipliers: map[string]float64{
				"Health":      2.0,
				"Electronics": 1.5,
				"Home":        1.2,
				"Fashion":     1.1,
				"Groceries":   1.0,
				"Sports":      1.3,
				"Books":       1.1,
			},
			ApplyCategoryMultipliers: false,
			ApplyCalendarPromotions:  true,
			Workers:                  1,
		},
		Rules: RulesConfig{
			LowSalesPercentile:         25,
			VeryLowSalesPercentile:     10,
			LowSalesDiscount:           0.15,
			VeryLowSalesDiscount:       0.25,
			InactiveDays:               30,
			InactiveBonusStepDays:      10,
			InactiveBonusPointsPerStep: 100,
			InactiveDiscount:           0.15,
			SegmentOffers: map[string]SegmentOfferConfig{
				string(types.RetentionClassVIP): {
					Recommendation: "VIP Customer - Offer exclusive early access",
					Action:         "VIP treatment",
				},
				string(types.RetentionClassLoyal): {
					BonusPoints:    200,
					Discount:       0.05,
					Recommendation: "Loyal Customer - Cross-sell opportunity",
					Action:         "Recommend complementary products",
				},
				string(types.RetentionClassAtRisk): {
					BonusPoints:    500,
					Discount:       0.20,
					Recommendation: "At Risk - Win-back campaign with special offer",
					Action:         "Urgent: Send personalized offer",
				},
				string(types.RetentionClassNew): {
					BonusPoints:    300,
					Discount:       0.10,
					Recommendation: "New Customer - Nurture and engage",
					Action:         "Send welcome series + onboarding",
				},
				string(types.RetentionClassLapsed): {
					BonusPoints:    1000,
					Discount:       0.30,
					Recommendation: "Lapsed Customer - Aggressive re-engagement",
					Action:         "Premium re-engagement campaign",
				},
				string(types.RetentionClassPotential): {
					BonusPoints:    150,
					Discount:       0.08,
					Recommendation: "Potential Customer - Personalized targeting",
					Action:         "Send personalized recommendations",
				},
			},
			SuggestionLimits: SuggestionLimitsConfig{
				LowSellers:        5,
				InactiveCustomers: 5,
			},
			LowBalanceThreshold:       100,
			LowEngagementTransactions: 3,
			PromotionStacking:         types.PromotionStackingLargestDiscount,
		},
		Effectiveness: EffectivenessConfig{
			Weights: EffectivenessWeights{
				AvgTransactionValue: 0.5,
				PointsPerSale:       0.3,
				UnitsPerTransaction: 0.2,
			},
			TopUpliftProducts: 15,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
