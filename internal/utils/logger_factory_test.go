package utils_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentforge/vcsync/internal/utils"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name           string
		logLevel       utils.LogLevel
		logFormat      utils.LogFormat
		expectedFailed bool
	}{
		{name: "structured_info", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormatStructured},
		{name: "console_debug", logLevel: utils.LogLevelDebug, logFormat: utils.LogFormatConsole},
		{name: "unsupported_level", logLevel: utils.LogLevel("verbose"), logFormat: utils.LogFormatStructured, expectedFailed: true},
		{name: "unsupported_format", logLevel: utils.LogLevelInfo, logFormat: utils.LogFormat("plain"), expectedFailed: true},
	}

	factory := utils.NewLoggerFactory()
	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			logger, creationError := factory.CreateLogger(testCase.logLevel, testCase.logFormat)
			if testCase.expectedFailed {
				require.Error(testInstance, creationError)
				require.Nil(testInstance, logger)
				return
			}

			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, logger)
		})
	}
}
