package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "learning-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// GatewayConfig holds settings for the search gateway client.
type GatewayConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the SearXNG-compatible metasearch endpoint
	// (e.g. "http://localhost:8888").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxPerQuery caps hits kept per individual query (default 10).
	MaxPerQuery int `json:"max_per_query" yaml:"max_per_query"`
}

// AIProvider selects the completion backend.
type AIProvider string

const (
	ProviderAnthropic AIProvider = "anthropic"
	ProviderOpenAI    AIProvider = "openai"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the completion backend: anthropic or openai.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// BreakerConfig holds circuit-breaker thresholds shared by the gateway
// and completion clients.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker (default 5).
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold"`

	// Cooldown is how long an open breaker fast-fails before probing
	// again (default 30s).
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
}

// ResearchConfig holds settings for the research-execution stage.
type ResearchConfig struct {
	// MaxResults caps deduplicated results kept per topic (default 30).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinResults is the floor of deduplicated results below which the
	// research is considered unusable (default 5).
	MinResults int `json:"min_results" yaml:"min_results"`

	// MinGeneralSuccesses is the floor of successful general queries
	// (default 3).
	MinGeneralSuccesses int `json:"min_general_successes" yaml:"min_general_successes"`
}

// StoreConfig holds settings for the result cache store.
type StoreConfig struct {
	// Dir is the directory holding the cache database (default "cache/").
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Gateway  GatewayConfig  `json:"gateway" yaml:"gateway"`
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Breaker  BreakerConfig  `json:"breaker" yaml:"breaker"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Store    StoreConfig    `json:"store" yaml:"store"`

	// MaxDepth caps subtopic recursion. The default of 1 disables
	// recursive subtopic research; callers asking for more are clamped
	// and a warning event is emitted.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// SubtopicConcurrency bounds concurrent subtopic pipeline runs when
	// recursion is enabled (default 3).
	SubtopicConcurrency int `json:"subtopic_concurrency" yaml:"subtopic_concurrency"`
}

// Defaults fills zero-valued fields with production defaults.
func (c *PipelineConfig) Defaults() {
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 15 * time.Second
	}
	if c.Gateway.UserAgent == "" {
		c.Gateway.UserAgent = "learning-engine/0.1"
	}
	if c.Gateway.MaxPerQuery <= 0 {
		c.Gateway.MaxPerQuery = 10
	}
	if c.AI.MaxRetries <= 0 {
		c.AI.MaxRetries = 3
	}
	if c.Breaker.FailureThreshold <= 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.Cooldown == 0 {
		c.Breaker.Cooldown = 30 * time.Second
	}
	if c.Research.MaxResults <= 0 {
		c.Research.MaxResults = 30
	}
	if c.Research.MinResults <= 0 {
		c.Research.MinResults = 5
	}
	if c.Research.MinGeneralSuccesses <= 0 {
		c.Research.MinGeneralSuccesses = 3
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "cache"
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 1
	}
	if c.SubtopicConcurrency <= 0 {
		c.SubtopicConcurrency = 3
	}
}
