package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentforge/vcsync/internal/utils"
)

type loaderTestConfiguration struct {
	Common struct {
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"common"`
	Commands struct {
		Import struct {
			GiteaOrganization string `mapstructure:"gitea_org"`
		} `mapstructure:"import"`
	} `mapstructure:"commands"`
}

func TestConfigurationLoaderMergesFileAndDefaults(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, "config.yaml")
	configurationContent := "commands:\n  import:\n    gitea_org: vendor\n"
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o644))

	loader := utils.NewConfigurationLoader("config", "yaml", "VCSYNC", []string{configurationDirectory})

	configuration := loaderTestConfiguration{}
	defaultValues := map[string]any{
		"common.log_level":          "info",
		"commands.import.gitea_org": "cray",
	}
	loadedConfiguration, loadError := loader.LoadConfiguration(configurationFilePath, defaultValues, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, configurationFilePath, loadedConfiguration.ConfigFileUsed)
	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "vendor", configuration.Commands.Import.GiteaOrganization)
}

func TestConfigurationLoaderAppliesEnvironmentOverrides(testInstance *testing.T) {
	testInstance.Setenv("VCSYNC_COMMON_LOG_LEVEL", "debug")

	loader := utils.NewConfigurationLoader("config", "yaml", "VCSYNC", []string{testInstance.TempDir()})

	configuration := loaderTestConfiguration{}
	defaultValues := map[string]any{"common.log_level": "info"}
	_, loadError := loader.LoadConfiguration("", defaultValues, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "debug", configuration.Common.LogLevel)
}
