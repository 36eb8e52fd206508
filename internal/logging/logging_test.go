package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestDebug_DisabledInProduction(t *testing.T) {
	var buf bytes.Buffer

	logger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
	logger.SetLevel(log.DebugLevel)

	appLogger := &AppLogger{
		logger: logger,
		debug:  false, // Production mode
	}

	appLogger.Debug("debug message that should not appear")

	output := buf.String()
	if strings.Contains(output, "debug message that should not appear") {
		t.Errorf("Expected debug message to be suppressed in production mode, got: %s", output)
	}
}

func TestDebug_EnabledInTestLogger(t *testing.T) {
	logger, buf := NewTestLogger()

	logger.Debug("template cache hit", "path", "analyzeTask/index.md")

	output := buf.String()
	if !strings.Contains(output, "template cache hit") {
		t.Errorf("Expected debug output, got: %s", output)
	}
	if !strings.Contains(output, "analyzeTask/index.md") {
		t.Errorf("Expected key/value pair in output, got: %s", output)
	}
}

func TestWith(t *testing.T) {
	logger, buf := NewTestLogger()

	scoped := logger.With("component", "loader")
	scoped.Info("preload finished")

	output := buf.String()
	if !strings.Contains(output, "component=loader") {
		t.Errorf("Expected scoped key/value in output, got: %s", output)
	}
}

func TestNewWriterLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWriterLogger(&buf, log.InfoLevel)
	logger.Debug("hidden")
	logger.Info("visible")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("Expected debug to be filtered at info level, got: %s", output)
	}
	if !strings.Contains(output, "visible") {
		t.Errorf("Expected info output, got: %s", output)
	}
}

func TestDebugObject(t *testing.T) {
	logger, buf := NewTestLogger()

	testObj := struct {
		Name  string
		Value int
	}{
		Name:  "test",
		Value: 42,
	}

	logger.DebugObject("test_object", testObj)

	output := buf.String()
	if !strings.Contains(output, "Object dump") {
		t.Errorf("Expected log output to contain 'Object dump', got: %s", output)
	}
	if !strings.Contains(output, "test_object") {
		t.Errorf("Expected log output to contain object name, got: %s", output)
	}
}

func TestLogPerformance(t *testing.T) {
	logger, buf := NewTestLogger()

	start := time.Now()
	time.Sleep(1 * time.Millisecond) // Small delay for measurable duration
	logger.LogPerformance("test_operation", start)

	output := buf.String()
	if !strings.Contains(output, "Performance") {
		t.Errorf("Expected log output to contain 'Performance', got: %s", output)
	}
	if !strings.Contains(output, "test_operation") {
		t.Errorf("Expected log output to contain operation name, got: %s", output)
	}
	if !strings.Contains(output, "duration") {
		t.Errorf("Expected log output to contain duration, got: %s", output)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	// Reset the singleton for testing
	defaultLogger = nil
	once = sync.Once{}

	// Debug mode writes taskprompt.log into the working directory
	t.Chdir(t.TempDir())
	t.Setenv("DEBUG", "1")

	Info("package level info")
	Warn("package level warn")
	Error("package level error")
	Debug("package level debug")

	start := time.Now()
	LogPerformance("package_operation", start)

	defaultLogger = nil
	once = sync.Once{}
}

func TestGetDefault_Singleton(t *testing.T) {
	// Reset the singleton for testing
	defaultLogger = nil
	once = sync.Once{}

	logger1 := GetDefault()
	logger2 := GetDefault()

	if logger1 != logger2 {
		t.Error("Expected GetDefault() to return the same instance (singleton)")
	}
}

// Benchmark tests
func BenchmarkInfo(b *testing.B) {
	logger, _ := NewTestLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
	}
}

func BenchmarkDebug(b *testing.B) {
	logger, _ := NewTestLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Debug("benchmark debug message", "iteration", i)
	}
}
