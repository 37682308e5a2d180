package contentsync

import (
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	recordsFilePermissionsConstant   = 0o644
	recordsWriteFailedLogMessage     = "Failed to record import results"
	recordsWrittenLogMessageConstant = "Recorded import results"
	recordsPathFieldConstant         = "records_path"
	recordsImportBranchFieldConstant = "import_branch"
	recordsImportCommitFieldConstant = "commit"
)

// ImportRecord describes a completed import for downstream consumers.
type ImportRecord struct {
	CloneURL     string    `yaml:"clone_url"`
	ImportBranch string    `yaml:"import_branch"`
	ImportDate   time.Time `yaml:"import_date"`
	SSHURL       string    `yaml:"ssh_url"`
	Commit       string    `yaml:"commit"`
}

type recordsDocument struct {
	Configuration ImportRecord `yaml:"configuration"`
}

// RecordsWriter persists import records as YAML. Write failures are logged and
// swallowed; a missing record never fails an otherwise successful import.
type RecordsWriter struct {
	logger *zap.Logger
	clock  func() time.Time
}

// NewRecordsWriter constructs a RecordsWriter.
func NewRecordsWriter(logger *zap.Logger) *RecordsWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsWriter{logger: logger, clock: time.Now}
}

// Write stamps the record with the current time and writes it to the path.
func (writer *RecordsWriter) Write(recordsPath string, record ImportRecord) {
	record.ImportDate = writer.clock()

	encodedRecord, marshalError := yaml.Marshal(recordsDocument{Configuration: record})
	if marshalError != nil {
		writer.logger.Warn(recordsWriteFailedLogMessage, zap.String(recordsPathFieldConstant, recordsPath), zap.Error(marshalError))
		return
	}

	if writeError := os.WriteFile(recordsPath, encodedRecord, recordsFilePermissionsConstant); writeError != nil {
		writer.logger.Warn(recordsWriteFailedLogMessage, zap.String(recordsPathFieldConstant, recordsPath), zap.Error(writeError))
		return
	}

	writer.logger.Info(
		recordsWrittenLogMessageConstant,
		zap.String(recordsPathFieldConstant, recordsPath),
		zap.String(recordsImportBranchFieldConstant, record.ImportBranch),
		zap.String(recordsImportCommitFieldConstant, record.Commit),
	)
}
