package log_service

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type LocalDiscLogService struct {
	logDir    string
	component string
	mu        sync.Mutex
	logger    *log.Logger
	minLevel  int
}

func NewLocalDiscLogService(logDir string, component string, minLogLevel ...string) (*LocalDiscLogService, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filePath := filepath.Join(logDir, fmt.Sprintf("%s.log", component))
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	service := &LocalDiscLogService{
		logDir:    logDir,
		component: component,
		logger:    log.New(file, "", 0),
		minLevel:  DebugLevelValue,
	}

	if len(minLogLevel) > 0 && minLogLevel[0] != "" {
		service.SetMinLogLevel(minLogLevel[0])
	}

	return service, nil
}

func (ls *LocalDiscLogService) SetMinLogLevel(level string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.minLevel = GetLevelValue(strings.ToUpper(strings.TrimSpace(level)))
}

func formatLog(level string, event LogEvent) string {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	meta := ""
	for k, v := range event.Metadata {
		meta += fmt.Sprintf("%s=%v ", k, v)
	}

	return fmt.Sprintf("%s [%s] %s: %s %s", ts.Format(time.RFC3339), event.Component, level, event.Message, meta)
}

func (ls *LocalDiscLogService) log(level string, event LogEvent) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if GetLevelValue(level) < ls.minLevel {
		return
	}

	if event.Component == "" {
		event.Component = ls.component
	}
	ls.logger.Print(formatLog(level, event))
}

func (ls *LocalDiscLogService) Debug(event LogEvent) {
	ls.log(DebugLevel, event)
}

func (ls *LocalDiscLogService) Info(event LogEvent) {
	ls.log(InfoLevel, event)
}

func (ls *LocalDiscLogService) Warn(event LogEvent) {
	ls.log(WarnLevel, event)
}

func (ls *LocalDiscLogService) Error(event LogEvent) {
	ls.log(ErrorLevel, event)
}

var _ LogService = (*LocalDiscLogService)(nil)
