package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/svergara/concierge/agent/contract"
	openrouterx "github.com/svergara/concierge/pkg/openrouter"
)

// Config selects the model backing each agent. All agents share one
// OpenRouter account; per-agent model and temperature overrides allow
// e.g. a stronger router with cheaper specialists.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	OrchestratorModel       string  `envconfig:"ORCHESTRATOR_MODEL" split_words:"true"`
	AddressModel            string  `envconfig:"ADDRESS_MODEL" split_words:"true"`
	DamageModel             string  `envconfig:"DAMAGE_MODEL" split_words:"true"`
	EchoModel               string  `envconfig:"ECHO_MODEL" split_words:"true"`
	OrchestratorTemperature float32 `envconfig:"ORCHESTRATOR_TEMPERATURE" split_words:"true" default:"-1"`
	AddressTemperature      float32 `envconfig:"ADDRESS_TEMPERATURE" split_words:"true" default:"-1"`
	DamageTemperature       float32 `envconfig:"DAMAGE_TEMPERATURE" split_words:"true" default:"-1"`
	EchoTemperature         float32 `envconfig:"ECHO_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the effective model configuration for one
// agent type, falling back to the shared defaults.
func (c Config) OpenRouterFor(agentType contractx.AgentType) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch agentType {
	case contractx.AgentTypeOrchestrator:
		override(c.OrchestratorModel, c.OrchestratorTemperature)
	case contractx.AgentTypeAddress:
		override(c.AddressModel, c.AddressTemperature)
	case contractx.AgentTypeDamage:
		override(c.DamageModel, c.DamageTemperature)
	case contractx.AgentTypeEcho:
		override(c.EchoModel, c.EchoTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
