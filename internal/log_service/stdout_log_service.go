package log_service

import (
	"log"
	"os"
	"strings"
	"sync"
)

// StdoutLogService writes log events to standard error. Used by commands
// where a log directory would be overkill.
type StdoutLogService struct {
	mu       sync.Mutex
	logger   *log.Logger
	minLevel int
}

func NewStdoutLogService(minLogLevel ...string) *StdoutLogService {
	service := &StdoutLogService{
		logger:   log.New(os.Stderr, "", 0),
		minLevel: InfoLevelValue,
	}

	if len(minLogLevel) > 0 && minLogLevel[0] != "" {
		service.minLevel = GetLevelValue(strings.ToUpper(strings.TrimSpace(minLogLevel[0])))
	}

	return service
}

func (ls *StdoutLogService) log(level string, event LogEvent) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if GetLevelValue(level) < ls.minLevel {
		return
	}
	ls.logger.Print(formatLog(level, event))
}

func (ls *StdoutLogService) Debug(event LogEvent) {
	ls.log(DebugLevel, event)
}

func (ls *StdoutLogService) Info(event LogEvent) {
	ls.log(InfoLevel, event)
}

func (ls *StdoutLogService) Warn(event LogEvent) {
	ls.log(WarnLevel, event)
}

func (ls *StdoutLogService) Error(event LogEvent) {
	ls.log(ErrorLevel, event)
}

var _ LogService = (*StdoutLogService)(nil)
