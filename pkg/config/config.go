// Package config loads the process configuration from the environment.
// Everything is read once at startup; a bad value stops the process
// before the first cycle.
package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/athulya-anil/queue-sweeper/pkg/arr"
	"github.com/athulya-anil/queue-sweeper/pkg/classifier"
	"github.com/athulya-anil/queue-sweeper/pkg/models"
)

// Environment variable names.
const (
	EnvServiceAURL   = "SERVICE_A_URL"
	EnvServiceAKey   = "SERVICE_A_API_KEY"
	EnvServiceAName  = "SERVICE_A_NAME"
	EnvServiceBURL   = "SERVICE_B_URL"
	EnvServiceBKey   = "SERVICE_B_API_KEY"
	EnvServiceBName  = "SERVICE_B_NAME"
	EnvCycleInterval = "CYCLE_INTERVAL_SECONDS"
	EnvHTTPTimeout   = "HTTP_TIMEOUT_SECONDS"
	EnvRequestRate   = "REQUEST_RATE_PER_SECOND"
	EnvSignatures    = "FAILURE_SIGNATURES"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"
	EnvStatusAddr    = "STATUS_ADDR"
)

// signatureSplitter separates entries in FAILURE_SIGNATURES.
const signatureSplitter = ";"

// Default values
const (
	DefaultServiceAName = "sonarr"
	DefaultServiceBName = "radarr"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
)

var (
	// ErrMissing is wrapped for every required variable that is unset or blank.
	ErrMissing = errors.New("missing required environment variable")
	// ErrInvalid is wrapped for every variable that does not parse.
	ErrInvalid = errors.New("invalid environment variable")
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Config is the immutable process configuration.
type Config struct {
	ServiceA      models.ServiceEndpoint
	ServiceB      models.ServiceEndpoint
	CycleInterval time.Duration
	HTTPTimeout   time.Duration
	RequestRate   float64
	Signatures    classifier.Signatures
	LogLevel      string
	LogFormat     string
	StatusAddr    string
}

// Endpoints returns the services in the order they are cleaned.
func (c Config) Endpoints() []models.ServiceEndpoint {
	return []models.ServiceEndpoint{c.ServiceA, c.ServiceB}
}

// FromEnv loads the configuration from the process environment.
func FromEnv() (Config, error) {
	return Load(os.LookupEnv)
}

// Load builds a Config from lookup. All problems are reported together.
func Load(lookup LookupFunc) (Config, error) {
	l := loader{lookup: lookup}

	cfg := Config{
		ServiceA: models.NewServiceEndpoint(
			l.optional(EnvServiceAName, DefaultServiceAName),
			l.baseURL(EnvServiceAURL),
			l.required(EnvServiceAKey),
		),
		ServiceB: models.NewServiceEndpoint(
			l.optional(EnvServiceBName, DefaultServiceBName),
			l.baseURL(EnvServiceBURL),
			l.required(EnvServiceBKey),
		),
		CycleInterval: l.seconds(EnvCycleInterval, true, 0),
		HTTPTimeout:   l.seconds(EnvHTTPTimeout, false, arr.DefaultTimeout),
		RequestRate:   l.rate(EnvRequestRate),
		Signatures:    l.signatures(EnvSignatures),
		LogLevel:      strings.ToLower(l.optional(EnvLogLevel, DefaultLogLevel)),
		LogFormat:     strings.ToLower(l.optional(EnvLogFormat, DefaultLogFormat)),
		StatusAddr:    l.optional(EnvStatusAddr, ""),
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		l.fail(fmt.Errorf("%w: %s=%q, want json or console", ErrInvalid, EnvLogFormat, cfg.LogFormat))
	}
	if cfg.ServiceA.Name == cfg.ServiceB.Name {
		l.fail(fmt.Errorf("%w: %s and %s must differ, both are %q", ErrInvalid, EnvServiceAName, EnvServiceBName, cfg.ServiceA.Name))
	}

	if len(l.errs) > 0 {
		return Config{}, errors.Join(l.errs...)
	}
	return cfg, nil
}

type loader struct {
	lookup LookupFunc
	errs   []error
}

func (l *loader) fail(err error) {
	l.errs = append(l.errs, err)
}

func (l *loader) value(key string) (string, bool) {
	v, ok := l.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (l *loader) required(key string) string {
	v, ok := l.value(key)
	if !ok {
		l.fail(fmt.Errorf("%w: %s", ErrMissing, key))
	}
	return v
}

func (l *loader) optional(key, def string) string {
	if v, ok := l.value(key); ok {
		return v
	}
	return def
}

func (l *loader) baseURL(key string) string {
	v := l.required(key)
	if v == "" {
		return ""
	}

	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		l.fail(fmt.Errorf("%w: %s=%q is not an absolute http(s) URL", ErrInvalid, key, v))
	}
	return v
}

// seconds parses a numeric value and truncates it to whole seconds, so
// "600" and "600.0" are both ten minutes.
func (l *loader) seconds(key string, required bool, def time.Duration) time.Duration {
	v, ok := l.value(key)
	if !ok {
		if required {
			l.fail(fmt.Errorf("%w: %s", ErrMissing, key))
		}
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		l.fail(fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v))
		return def
	}
	secs := int64(f)
	if secs <= 0 {
		l.fail(fmt.Errorf("%w: %s=%q must be at least 1 second", ErrInvalid, key, v))
		return def
	}
	if secs > int64(math.MaxInt64/int64(time.Second)) {
		l.fail(fmt.Errorf("%w: %s=%q is too large", ErrInvalid, key, v))
		return def
	}
	return time.Duration(secs) * time.Second
}

func (l *loader) rate(key string) float64 {
	v, ok := l.value(key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		l.fail(fmt.Errorf("%w: %s=%q must be a non-negative number", ErrInvalid, key, v))
		return 0
	}
	return f
}

func (l *loader) signatures(key string) classifier.Signatures {
	v, ok := l.value(key)
	if !ok {
		return classifier.DefaultSignatures
	}

	var sigs classifier.Signatures
	for _, part := range strings.Split(v, signatureSplitter) {
		if part = strings.TrimSpace(part); part != "" {
			sigs = append(sigs, part)
		}
	}
	if len(sigs) == 0 {
		l.fail(fmt.Errorf("%w: %s has no signatures", ErrInvalid, key))
		return classifier.DefaultSignatures
	}
	return sigs
}
