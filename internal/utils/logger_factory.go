package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	pathutils "github.com/temirov/tfs-merge/internal/utils/path"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	consoleMessageKeyConstant            = "message"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	logFileMaximumSizeMegabytesConstant  = 10
	logFileMaximumBackupsConstant        = 3
	logFileMaximumAgeDaysConstant        = 28
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LoggerOutputs pairs the diagnostic logger, which carries levels, timestamps and fields, with the console logger
// that prints bare messages for the operator. The console logger is a no-op for the structured format.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerOption customizes logger construction.
type LoggerOption func(settings *loggerSettings)

type loggerSettings struct {
	logFilePath      string
	consoleWriter    io.Writer
	diagnosticWriter io.Writer
}

// WithRotatingLogFile tees diagnostic entries into a size-rotated JSON log file.
func WithRotatingLogFile(logFilePath string) LoggerOption {
	return func(settings *loggerSettings) {
		settings.logFilePath = strings.TrimSpace(logFilePath)
	}
}

// WithConsoleWriter redirects the console logger, which writes to standard error by default.
func WithConsoleWriter(writer io.Writer) LoggerOption {
	return func(settings *loggerSettings) {
		if writer != nil {
			settings.consoleWriter = writer
		}
	}
}

// WithDiagnosticWriter redirects the diagnostic logger, which writes to standard error by default.
func WithDiagnosticWriter(writer io.Writer) LoggerOption {
	return func(settings *loggerSettings) {
		if writer != nil {
			settings.diagnosticWriter = writer
		}
	}
}

// LoggerFactory builds the zap loggers for one invocation and owns any log files they write to.
type LoggerFactory struct {
	pathExpander  *pathutils.Expander
	rotatingFiles []*lumberjack.Logger
	rotatingMutex sync.Mutex
}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{pathExpander: pathutils.NewExpander()}
}

// CreateLoggerOutputs validates the level and format and builds both loggers.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat, options ...LoggerOption) (LoggerOutputs, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	var diagnosticEncoder zapcore.Encoder
	switch requestedLogFormat {
	case LogFormatStructured:
		diagnosticEncoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case LogFormatConsole:
		diagnosticEncoder = zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	settings := loggerSettings{consoleWriter: os.Stderr, diagnosticWriter: os.Stderr}
	for _, option := range options {
		if option != nil {
			option(&settings)
		}
	}

	levelEnabler := zap.NewAtomicLevelAt(zapLogLevel)
	diagnosticCores := []zapcore.Core{
		zapcore.NewCore(diagnosticEncoder, zapcore.Lock(zapcore.AddSync(settings.diagnosticWriter)), levelEnabler),
	}
	if len(settings.logFilePath) > 0 {
		diagnosticCores = append(diagnosticCores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(factory.openRotatingFile(settings.logFilePath)),
			levelEnabler,
		))
	}
	diagnosticLogger := zap.New(
		zapcore.NewTee(diagnosticCores...),
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(settings.diagnosticWriter))),
	)

	consoleLogger := zap.NewNop()
	if requestedLogFormat == LogFormatConsole {
		consoleEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey: consoleMessageKeyConstant,
			LineEnding: zapcore.DefaultLineEnding,
		})
		consoleLogger = zap.New(zapcore.NewCore(consoleEncoder, zapcore.AddSync(NewFlushingWriter(settings.consoleWriter)), zapcore.InfoLevel))
	}

	return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: consoleLogger}, nil
}

// Close releases rotating log files opened by the factory.
func (factory *LoggerFactory) Close() error {
	factory.rotatingMutex.Lock()
	defer factory.rotatingMutex.Unlock()

	var firstCloseError error
	for _, rotatingFile := range factory.rotatingFiles {
		if closeError := rotatingFile.Close(); closeError != nil && firstCloseError == nil {
			firstCloseError = closeError
		}
	}
	factory.rotatingFiles = nil
	return firstCloseError
}

func (factory *LoggerFactory) openRotatingFile(logFilePath string) *lumberjack.Logger {
	rotatingFile := &lumberjack.Logger{
		Filename:   factory.pathExpander.Expand(logFilePath),
		MaxSize:    logFileMaximumSizeMegabytesConstant,
		MaxBackups: logFileMaximumBackupsConstant,
		MaxAge:     logFileMaximumAgeDaysConstant,
	}

	factory.rotatingMutex.Lock()
	factory.rotatingFiles = append(factory.rotatingFiles, rotatingFile)
	factory.rotatingMutex.Unlock()

	return rotatingFile
}
