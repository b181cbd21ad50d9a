package sweeper_config

import (
	"time"

	"github.com/mansi-tandel/expirydate-tracker/internal/obs"
	pginfra "github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
	"github.com/mansi-tandel/expirydate-tracker/internal/services/notify"
)

type SweepCfg struct {
	// FireTime is the daily wall-clock trigger, "15:04" format.
	FireTime    string `mapstructure:"fire_time"`
	RunOnStart  bool   `mapstructure:"run_on_start"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type SMTP struct {
	Addr       string        `mapstructure:"addr"`
	From       string        `mapstructure:"from"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"password"`
	UseTLS     bool          `mapstructure:"use_tls"`
	Timeout    time.Duration `mapstructure:"timeout"`
	SubjPrefix string        `mapstructure:"subj_prefix"`
}

func (s *SMTP) AsMailerConfig() notify.SMTPConfig {
	return notify.SMTPConfig{
		Addr:       s.Addr,
		From:       s.From,
		User:       s.User,
		Password:   s.Password,
		UseTLS:     s.UseTLS,
		Timeout:    s.Timeout,
		SubjPrefix: s.SubjPrefix,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (l *Log) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  l.Level,
		Pretty: l.Pretty,
		App:    "expiry-tracker/sweeper",
	}
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Config struct {
	DB       pginfra.Config `mapstructure:"db"`
	SMTP     SMTP           `mapstructure:"smtp"`
	Sweep    SweepCfg       `mapstructure:"sweep"`
	Timezone string         `mapstructure:"timezone"`
	Log      Log            `mapstructure:"log"`
	OTEL     OTEL           `mapstructure:"otel"`
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
