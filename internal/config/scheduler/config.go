package scheduler_config

import (
	"time"

	"github.com/mansi-tandel/expirydate-tracker/internal/obs"
	kafkax "github.com/mansi-tandel/expirydate-tracker/internal/repository/kafka"
	pginfra "github.com/mansi-tandel/expirydate-tracker/internal/repository/postgres"
	"github.com/mansi-tandel/expirydate-tracker/internal/services/notify"
)

type KafkaIn struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	GroupID       string   `mapstructure:"group_id"`
	FromBeginning bool     `mapstructure:"from_beginning"`
}

func (k *KafkaIn) AsConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers:       k.Brokers,
		Topic:         k.Topic,
		GroupID:       k.GroupID,
		FromBeginning: k.FromBeginning,
	}
}

type JobsCfg struct {
	Tick          time.Duration `mapstructure:"tick"`
	BatchLimit    int           `mapstructure:"batch_limit"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`
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
		App:    "expiry-tracker/scheduler",
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
	In       KafkaIn        `mapstructure:"kafka_in"`
	Jobs     JobsCfg        `mapstructure:"jobs"`
	SMTP     SMTP           `mapstructure:"smtp"`
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
