package config

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// Backend types.
const (
	BackendOpenAI = "openai"
	BackendTriton = "triton"
)

// Model types, used as the first key under [models].
const (
	ChatCompletions     = "chat_completions"
	Embeddings          = "embeddings"
	AudioSpeech         = "audio_speech"
	AudioTranscriptions = "audio_transcriptions"
)

// DefaultBackend is the name every model falls back to.
const DefaultBackend = "default"

var modelTypes = []string{ChatCompletions, Embeddings, AudioSpeech, AudioTranscriptions}

// Config is the complete router configuration.
type Config struct {
	Title    string                      `json:"title" yaml:"title" toml:"title"`
	Daemon   Daemon                      `json:"daemon" yaml:"daemon" toml:"daemon"`
	Backends map[string]Backend          `json:"backends" yaml:"backends" toml:"backends"`
	Models   map[string]map[string]Model `json:"models" yaml:"models" toml:"models"`
}

// Daemon holds process-level settings.
type Daemon struct {
	ListenIP        string `json:"listen_ip" yaml:"listen_ip" toml:"listen_ip"`
	ListenPort      int    `json:"listen_port" yaml:"listen_port" toml:"listen_port"`
	InstanceID      string `json:"instance_id" yaml:"instance_id" toml:"instance_id"`
	OTLPEndpoint    string `json:"otlp_endpoint" yaml:"otlp_endpoint" toml:"otlp_endpoint"`
	TemplateDir     string `json:"template_dir" yaml:"template_dir" toml:"template_dir"`
	LogLevel        string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat       string `json:"log_format" yaml:"log_format" toml:"log_format"`
	MaxBodyBytes    int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	ShutdownTimeout int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
	// QueueTimeout bounds the wait for a backend slot, in seconds.
	QueueTimeout int  `json:"queue_timeout_seconds" yaml:"queue_timeout_seconds" toml:"queue_timeout_seconds"`
	CORS         CORS `json:"cors" yaml:"cors" toml:"cors"`
}

// CORS is opt-in.
type CORS struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

// Backend describes one upstream.
type Backend struct {
	Type    string `json:"type" yaml:"type" toml:"type"`
	BaseURL string `json:"base_url" yaml:"base_url" toml:"base_url"`
	APIKey  string `json:"api_key" yaml:"api_key" toml:"api_key"`
	Default bool   `json:"default" yaml:"default" toml:"default"`

	// MaxInflight limits concurrent requests to the backend; 0 means unlimited.
	MaxInflight int `json:"max_inflight" yaml:"max_inflight" toml:"max_inflight"`
	// MaxQueue limits requests waiting for a slot once MaxInflight is reached.
	MaxQueue int `json:"max_queue" yaml:"max_queue" toml:"max_queue"`
}

// Model maps an externally visible model name onto a backend.
type Model struct {
	Backend      string `json:"backend" yaml:"backend" toml:"backend"`
	BackendModel string `json:"backend_model" yaml:"backend_model" toml:"backend_model"`
	// BackendVersion pins a Triton model version; empty or "latest" lets the server choose.
	BackendVersion string `json:"backend_version" yaml:"backend_version" toml:"backend_version"`
	Default        bool   `json:"default" yaml:"default" toml:"default"`
	MaxInput       *int   `json:"max_input" yaml:"max_input" toml:"max_input"`
	MaxTokens      *int   `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	// Tokenizer is a tiktoken encoding or OpenAI model name, required with MaxInput.
	Tokenizer    string `json:"tokenizer" yaml:"tokenizer" toml:"tokenizer"`
	PromptFormat string `json:"prompt_format" yaml:"prompt_format" toml:"prompt_format"`
	OutputName   string `json:"output_name" yaml:"output_name" toml:"output_name"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Title == "" {
		c.Title = "ai-router"
	}
	d := &c.Daemon
	if d.ListenIP == "" {
		d.ListenIP = "0.0.0.0"
	}
	if d.ListenPort == 0 {
		d.ListenPort = 3000
	}
	if d.InstanceID == "" {
		d.InstanceID = uuid.NewString()
	}
	if d.LogLevel == "" {
		d.LogLevel = "info"
	}
	if d.LogFormat == "" {
		d.LogFormat = "json"
	}
	if d.MaxBodyBytes <= 0 {
		// Audio uploads.
		d.MaxBodyBytes = 25 << 20
	}
	if d.ShutdownTimeout <= 0 {
		d.ShutdownTimeout = 5
	}
	if d.QueueTimeout <= 0 {
		d.QueueTimeout = 30
	}
	for name, m := range c.Models {
		for id, mc := range m {
			if mc.Backend == "" {
				mc.Backend = DefaultBackend
			}
			m[id] = mc
		}
		c.Models[name] = m
	}
}

// Validate checks cross references and uniqueness of defaults.
func (c *Config) Validate() error {
	var errs []error
	defaults := 0
	for _, name := range sortedKeys(c.Backends) {
		b := c.Backends[name]
		switch b.Type {
		case BackendOpenAI:
		case BackendTriton:
			if b.BaseURL == "" {
				errs = append(errs, fmt.Errorf("backend %s: base_url is required for triton", name))
			}
		default:
			errs = append(errs, fmt.Errorf("backend %s: unknown type %q", name, b.Type))
		}
		if b.MaxInflight < 0 || b.MaxQueue < 0 {
			errs = append(errs, fmt.Errorf("backend %s: max_inflight and max_queue must not be negative", name))
		}
		if b.Default {
			defaults++
		}
	}
	if defaults > 1 {
		errs = append(errs, errors.New("multiple backends set as default"))
	}
	for _, typ := range sortedKeys(c.Models) {
		if !knownModelType(typ) {
			errs = append(errs, fmt.Errorf("unknown model type %q", typ))
			continue
		}
		models := c.Models[typ]
		defaults := 0
		for _, id := range sortedKeys(models) {
			m := models[id]
			if m.Default {
				defaults++
			}
			if !c.hasBackend(m.Backend) {
				errs = append(errs, fmt.Errorf("model %s: backend %s not configured", id, m.Backend))
			}
			if m.MaxInput != nil && m.Tokenizer == "" {
				errs = append(errs, fmt.Errorf("model %s: max_input requires tokenizer", id))
			}
		}
		if defaults > 1 {
			errs = append(errs, fmt.Errorf("%s: multiple models set as default", typ))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) hasBackend(name string) bool {
	if _, ok := c.Backends[name]; ok {
		return true
	}
	if name != DefaultBackend {
		return false
	}
	for _, b := range c.Backends {
		if b.Default {
			return true
		}
	}
	return false
}

// ListenAddr joins the listen IP and port.
func (d Daemon) ListenAddr() string {
	return net.JoinHostPort(d.ListenIP, strconv.Itoa(d.ListenPort))
}

// Tokenizers lists every tokenizer referenced by a model.
func (c *Config) Tokenizers() []string {
	var out []string
	for _, typ := range sortedKeys(c.Models) {
		for _, id := range sortedKeys(c.Models[typ]) {
			if t := c.Models[typ][id].Tokenizer; t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func knownModelType(t string) bool {
	for _, k := range modelTypes {
		if k == t {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
