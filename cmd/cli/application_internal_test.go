package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	importCommandNameConstant = "import"
	updateCommandNameConstant = "update"
)

func TestNewApplicationRegistersCommands(t *testing.T) {
	application := NewApplication()

	registeredCommandNames := []string{}
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredCommandNames = append(registeredCommandNames, registeredCommand.Name())
	}

	require.Contains(t, registeredCommandNames, importCommandNameConstant)
	require.Contains(t, registeredCommandNames, updateCommandNameConstant)
}

func TestInitializeConfigurationAppliesDefaults(t *testing.T) {
	application := NewApplication()

	initializationError := application.initializeConfiguration(application.rootCommand)
	require.NoError(t, initializationError)

	require.Equal(t, "info", application.configuration.Common.LogLevel)
	require.Equal(t, "structured", application.configuration.Common.LogFormat)
	require.Equal(t, "cray", application.configuration.Commands.Import.GiteaOrganization)
	require.Equal(t, "semver_previous_if_exists", application.configuration.Commands.Import.BaseBranch)
	require.Equal(t, "crayvcs", application.configuration.Commands.Update.GiteaUsername)
	require.False(t, application.humanReadableLoggingEnabled())
}

func TestHumanReadableLoggingEnabledForConsoleFormat(t *testing.T) {
	application := NewApplication()
	application.configuration.Common.LogFormat = "console"

	require.True(t, application.humanReadableLoggingEnabled())
}
