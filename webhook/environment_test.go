package webhook_test

import (
	"testing"

	"github.com/marcelsud/webhook-guard/webhook"
	"github.com/stretchr/testify/assert"
)

func TestNewEnvironment(t *testing.T) {
	t.Run("matching is case-insensitive", func(t *testing.T) {
		cases := []struct {
			value string
			env   webhook.Environment
		}{
			{"production", webhook.Production},
			{"Production", webhook.Production},
			{"sandbox", webhook.Sandbox},
			{"Sandbox", webhook.Sandbox},
			{"SANDBOX", webhook.Sandbox},
		}

		for _, c := range cases {
			assert.Equal(t, c.env, webhook.NewEnvironment(c.value), "value %q", c.value)
		}
	})

	t.Run("absent or unknown header means production", func(t *testing.T) {
		assert.Equal(t, webhook.Production, webhook.NewEnvironment(""))
		assert.Equal(t, webhook.Production, webhook.NewEnvironment("staging"))
	})
}

func TestEnvironmentValidate(t *testing.T) {
	assert.NoError(t, webhook.Production.Validate())
	assert.NoError(t, webhook.Sandbox.Validate())
	assert.Error(t, webhook.Environment(0).Validate())
	assert.Error(t, webhook.Environment(99).Validate())
}
