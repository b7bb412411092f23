package cli

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfig_ViperValuesOverrideDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("retriever.k", 25)
	viper.Set("llm.model", "gpt-4o-mini")
	viper.Set("llm.api_key", "key-from-config")
	viper.Set("cache.enabled", true)
	viper.Set("tracking.dir", "custom_tracking")

	cfg := buildConfig(planCmd)
	assert.Equal(t, 25, cfg.Retriever.K)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "key-from-config", cfg.LLM.APIKey)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "custom_tracking", cfg.Tracking.Dir)
}

func TestBuildConfig_EnvironmentOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("SAFEPLAN_LLM_MODEL", "gpt-4.1")

	// Point at a non-existent config file so only the environment applies.
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { cfgFile = "" })

	initConfig()

	cfg := buildConfig(planCmd)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
}

func TestBuildConfig_ExplicitFlagsWinOverViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("retriever.k", 25)

	require.NoError(t, planCmd.Flags().Set("k", "7"))

	cfg := buildConfig(planCmd)
	assert.Equal(t, 7, cfg.Retriever.K)
}
