package nutriplan

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ExchangeLogger is the interface for recording model exchanges.
type ExchangeLogger interface {
	LogExchange(exchange ExchangeLog) error
}

// NewExchangeLogFilePath returns a file path based on a cleaned up model name or id to make it easier to identify logs produced with various models.
func NewExchangeLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(model), ":", "_"),
	)
}

// ExchangeLog represents a single request/response round trip with the model.
type ExchangeLog struct {
	Feature     string    `json:"feature"` // "search" or "analyze"
	Timestamp   time.Time `json:"timestamp"`
	ModelInput  string    `json:"model_input,omitempty"`
	ModelOutput any       `json:"model_output"`
	Error       string    `json:"error,omitempty"`
}

// FileExchangeLogger logs to a file, accumulating exchanges and flushing at the end
type FileExchangeLogger struct {
	exchanges []ExchangeLog
	writer    io.Writer
}

// NewFileExchangeLogger creates a new file-based exchange logger
func NewFileExchangeLogger(writer io.Writer) *FileExchangeLogger {
	return &FileExchangeLogger{
		exchanges: make([]ExchangeLog, 0),
		writer:    writer,
	}
}

// LogExchange logs an exchange to the buffer (does not flush immediately)
func (fel *FileExchangeLogger) LogExchange(exchange ExchangeLog) error {
	fel.exchanges = append(fel.exchanges, exchange)
	return nil
}

// Flush flushes all accumulated exchanges to the writer
func (fel *FileExchangeLogger) Flush() error {
	if fel.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"session": map[string]any{
			"timestamp": time.Now(),
			"exchanges": fel.exchanges,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal exchange log: %w", err)
	}

	if _, err := fel.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write exchange log: %w", err)
	}

	// Clear the buffer after successful write
	fel.exchanges = fel.exchanges[:0]
	return nil
}

// NoOpExchangeLogger is a logger that discards all log entries
type NoOpExchangeLogger struct{}

// NewNoOpExchangeLogger creates a new no-op exchange logger
func NewNoOpExchangeLogger() *NoOpExchangeLogger {
	return &NoOpExchangeLogger{}
}

// LogExchange discards the exchange log (no-op)
func (nop *NoOpExchangeLogger) LogExchange(exchange ExchangeLog) error {
	return nil
}

// StdoutExchangeLogger logs each exchange as a JSON line to stdout (for Lambda/CloudWatch)
type StdoutExchangeLogger struct{}

// NewStdoutExchangeLogger creates a new stdout-based exchange logger
func NewStdoutExchangeLogger() *StdoutExchangeLogger {
	return &StdoutExchangeLogger{}
}

// LogExchange writes the exchange as a JSON line to os.Stdout
func (l *StdoutExchangeLogger) LogExchange(exchange ExchangeLog) error {
	data, err := json.Marshal(exchange)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
