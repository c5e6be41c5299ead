package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	genkitai "github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/anthropic"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// genkitBackend describes how one hosted model family is wired into Genkit.
type genkitBackend struct {
	prefix string
	plugin func(apiKey string) genkit.GenkitOption
}

//nolint:gochecknoglobals // static backend table
var genkitBackends = map[string]genkitBackend{
	ProviderAnthropic: {
		prefix: "anthropic",
		plugin: func(apiKey string) genkit.GenkitOption {
			return genkit.WithPlugins(&anthropic.Anthropic{
				Opts: []option.RequestOption{option.WithAPIKey(apiKey)},
			})
		},
	},
	ProviderOpenAI: {
		prefix: "openai",
		plugin: func(apiKey string) genkit.GenkitOption {
			return genkit.WithPlugins(&openai.OpenAI{
				Opts: []option.RequestOption{option.WithAPIKey(apiKey)},
			})
		},
	},
	ProviderGoogle: {
		prefix: "googleai",
		plugin: func(apiKey string) genkit.GenkitOption {
			return genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: apiKey})
		},
	},
}

// GenkitProvider is a hosted summarization backend (Anthropic, OpenAI or
// Google) reached through Genkit. It is safe for concurrent use, including
// Close racing with GenerateText.
type GenkitProvider struct {
	mu       sync.RWMutex
	gk       *genkit.Genkit
	provider string
	model    string
	logger   *logrus.Entry
}

// NewGenkitProvider initializes the Genkit backend named by cfg.Provider.
func NewGenkitProvider(ctx context.Context, cfg *Config, logger *logrus.Entry) (*GenkitProvider, error) {
	backend, ok := genkitBackends[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	model := modelPath(cfg.Provider, cfg.Model)
	gk := genkit.Init(ctx, backend.plugin(cfg.APIKey), genkit.WithDefaultModel(model))

	return &GenkitProvider{
		gk:       gk,
		provider: cfg.Provider,
		model:    model,
		logger:   logger.WithField("model", model),
	}, nil
}

// modelPath qualifies a model name with its Genkit plugin prefix, falling
// back to the provider's default model.
func modelPath(provider, model string) string {
	if model == "" {
		model = GetDefaultModel(provider)
	}
	if backend, ok := genkitBackends[provider]; ok {
		return backend.prefix + "/" + model
	}
	return model
}

// Name returns the provider identifier.
func (p *GenkitProvider) Name() string {
	return p.provider
}

// Model returns the Genkit model path requests are sent to.
func (p *GenkitProvider) Model() string {
	return p.model
}

// GenerateText sends the risk prompt to the hosted model.
func (p *GenkitProvider) GenerateText(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	p.mu.RLock()
	gk := p.gk
	p.mu.RUnlock()
	if gk == nil {
		return nil, ErrProviderNotConfigured
	}

	start := time.Now()

	// compat_oai plugins reject GenerationCommonConfig, so temperature and
	// token limits stay at the model defaults.
	resp, err := genkit.Generate(ctx, gk, genkitai.WithPrompt(req.Prompt))
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %w", ErrGenerationTimeout, ctx.Err())
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			return nil, ProviderError(p.provider, "generate", err)
		}
	}

	text := resp.Text()
	if text == "" {
		return nil, ErrEmptyResponse
	}

	out := &GenerateResponse{
		Content:  text,
		Duration: time.Since(start),
	}
	if resp.Usage != nil {
		out.TokensUsed = resp.Usage.TotalTokens
	}
	out.FinishReason = string(resp.FinishReason)

	p.logger.WithFields(logrus.Fields{
		"duration_ms": out.Duration.Milliseconds(),
		"tokens_used": out.TokensUsed,
	}).Debug("Genkit generation finished")

	return out, nil
}

// IsAvailable reports whether the provider has not been closed.
func (p *GenkitProvider) IsAvailable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gk != nil
}

// Close releases the Genkit instance. The provider is unavailable afterwards.
func (p *GenkitProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gk = nil
	return nil
}
