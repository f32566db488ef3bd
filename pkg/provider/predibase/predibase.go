package predibase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rhuss/lorasampler/pkg/api"
	"github.com/rhuss/lorasampler/pkg/observability"
	"github.com/rhuss/lorasampler/pkg/provider"
	"github.com/rhuss/lorasampler/pkg/provider/openaicompat"
	"github.com/rhuss/lorasampler/pkg/retry"
)

// Adapter implements provider.Sampler for a Predibase LoRA deployment.
// Configuration is fixed at construction; an Adapter is safe for
// concurrent use.
type Adapter struct {
	cfg     Config
	client  *openaicompat.Client
	policy  retry.Policy
	sleeper retry.Sleeper
	logger  *slog.Logger
}

// Ensure Adapter implements provider.Sampler at compile time.
var _ provider.Sampler = (*Adapter)(nil)

type options struct {
	credentials CredentialSource
	sleeper     retry.Sleeper
	policy      retry.Policy
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option customizes an Adapter.
type Option func(*options)

// WithCredentialSource sets where the API key comes from when
// Config.APIKey is empty. The default reads PREDIBASE_API_KEY.
func WithCredentialSource(src CredentialSource) Option {
	return func(o *options) { o.credentials = src }
}

// WithSleeper replaces the real-time backoff sleeper.
func WithSleeper(s retry.Sleeper) Option {
	return func(o *options) { o.sleeper = s }
}

// WithRetryPolicy replaces retry.DefaultPolicy().
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithHTTPClient replaces the HTTP client used for backend calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger for attempt and exhaustion messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an Adapter. It returns an *api.ConfigurationError when no
// credential can be found, when BaseURL or AdapterID is empty, or when the
// retry policy is unusable.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	o := options{
		credentials: EnvCredential(APIKeyEnv),
		sleeper:     retry.TimerSleeper{},
		policy:      retry.DefaultPolicy(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if cfg.APIKey == "" && o.credentials != nil {
		cfg.APIKey = o.credentials()
	}
	if cfg.APIKey == "" {
		return nil, api.NewConfigurationError("api_key",
			"API key must be provided either through the api_key setting or the "+APIKeyEnv+" environment variable")
	}

	// Normalize: remove trailing slash from base URL.
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		return nil, api.NewConfigurationError("base_url", "base_url must be provided")
	}

	if cfg.AdapterID == "" {
		return nil, api.NewConfigurationError("adapter_id", "adapter_id must be provided")
	}

	if err := o.policy.Validate(); err != nil {
		return nil, api.NewConfigurationError("retry", err.Error())
	}

	if cfg.AdapterSource == "" {
		cfg.AdapterSource = DefaultAdapterSource
	}
	temp := DefaultTemperature
	if cfg.Temperature != nil {
		temp = *cfg.Temperature
	}
	cfg.Temperature = &temp
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	var clientOpts []openaicompat.ClientOption
	if o.httpClient != nil {
		clientOpts = append(clientOpts, openaicompat.WithHTTPClient(o.httpClient))
	}

	return &Adapter{
		cfg:     cfg,
		client:  openaicompat.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout, clientOpts...),
		policy:  o.policy,
		sleeper: o.sleeper,
		logger:  o.logger,
	}, nil
}

// Name returns the sampler identifier.
func (a *Adapter) Name() string {
	return "predibase"
}

// Config returns the effective, normalized configuration.
func (a *Adapter) Config() Config {
	return a.cfg
}

// PackMessage converts one conversation turn to the wire format. User
// messages carry the adapter selection parameters.
func (a *Adapter) PackMessage(role api.Role, content any, isUser bool) openaicompat.ChatMessage {
	msg := openaicompat.ChatMessage{
		Role:    string(role),
		Content: content,
	}
	if isUser {
		msg.Parameters = &openaicompat.AdapterParameters{
			AdapterID:     a.cfg.AdapterID,
			AdapterSource: a.cfg.AdapterSource,
		}
	}
	return msg
}

// PackConversation prepends the configured system message, if any, and
// packs every message. The input slice is not modified.
func (a *Adapter) PackConversation(conversation []api.Message) []openaicompat.ChatMessage {
	msgs := make([]openaicompat.ChatMessage, 0, len(conversation)+1)
	if a.cfg.SystemMessage != "" {
		msgs = append(msgs, a.PackMessage(api.RoleSystem, a.cfg.SystemMessage, false))
	}
	for _, m := range conversation {
		msgs = append(msgs, a.PackMessage(m.Role, m.Content, m.Role == api.RoleUser))
	}
	return msgs
}

func (a *Adapter) buildRequest(conversation []api.Message) *openaicompat.ChatCompletionRequest {
	temp := *a.cfg.Temperature
	maxTokens := a.cfg.MaxTokens
	return &openaicompat.ChatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    a.PackConversation(conversation),
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}
}

// Generate sends the conversation to the deployment and returns the first
// choice's content.
//
// Failed calls are retried according to the retry policy (by default five
// attempts with 1s, 2s, 4s, 8s and 16s backoffs). Generate never returns
// an error; when every attempt fails, or ctx is cancelled, it returns "".
func (a *Adapter) Generate(ctx context.Context, conversation []api.Message) string {
	start := time.Now()
	adapterID := a.cfg.AdapterID
	logger := a.logger.With("call_id", uuid.NewString(), "adapter_id", adapterID)
	req := a.buildRequest(conversation)

	var content string
	err := retry.Do(ctx, a.policy, a.sleeper, func(ctx context.Context, attempt int) error {
		attemptStart := time.Now()
		resp, err := a.client.Complete(ctx, req)
		observability.ProviderLatency.WithLabelValues(adapterID).Observe(time.Since(attemptStart).Seconds())

		if err != nil {
			observability.ProviderAttemptsTotal.WithLabelValues(adapterID, "error").Inc()
			observability.ProviderFailuresTotal.WithLabelValues(adapterID, api.KindOf(err)).Inc()
			return err
		}

		observability.ProviderAttemptsTotal.WithLabelValues(adapterID, "ok").Inc()
		if resp.Usage != nil {
			observability.ProviderTokensTotal.WithLabelValues(adapterID, "input").Add(float64(resp.Usage.PromptTokens))
			observability.ProviderTokensTotal.WithLabelValues(adapterID, "output").Add(float64(resp.Usage.CompletionTokens))
		}
		content = resp.FirstContent()
		return nil
	}, func(attempt int, backoff time.Duration, err error) {
		logger.Warn("chat completion failed, backing off",
			"attempt", attempt,
			"max_attempts", a.policy.MaxAttempts,
			"backoff", backoff,
			"error_kind", api.KindOf(err),
			"error", err.Error(),
		)
		observability.BackoffSecondsTotal.WithLabelValues(adapterID).Add(backoff.Seconds())
	})

	observability.SamplerCallDuration.WithLabelValues(adapterID).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		observability.SamplerCallsTotal.WithLabelValues(adapterID, observability.OutcomeSuccess).Inc()
		return content

	case errors.Is(err, retry.ErrExhausted):
		observability.SamplerCallsTotal.WithLabelValues(adapterID, observability.OutcomeExhausted).Inc()
		logger.Error("max retries reached, returning empty string",
			"attempts", a.policy.MaxAttempts,
			"error", err.Error(),
		)

	case errors.Is(err, retry.ErrAbandoned):
		observability.SamplerCallsTotal.WithLabelValues(adapterID, observability.OutcomeAbandoned).Inc()
		logger.Error("non-retryable backend error, returning empty string",
			"error_kind", api.KindOf(err),
			"error", err.Error(),
		)

	default:
		observability.SamplerCallsTotal.WithLabelValues(adapterID, observability.OutcomeCancelled).Inc()
		logger.Warn("call cancelled, returning empty string", "error", err.Error())
	}

	return ""
}

// ListModels returns the models served by the deployment.
func (a *Adapter) ListModels(ctx context.Context) ([]openaicompat.ChatModel, error) {
	return a.client.ListModels(ctx)
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	return a.client.Close()
}
