package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Modules of the engine. Trace and Debug records are dropped unless their
// module is enabled; Info and above always pass.
const (
	Interp     = "evm_interp"     // Interpreter loop, per-step tracing
	Frame      = "evm_frame"      // Frame push/pop and child calls
	Journal    = "evm_journal"    // Checkpoint/rewind/commit
	Precompile = "evm_precompile" // Precompiled contracts
	State      = "evm_state"      // Backing account state and cache
	Rules      = "evm_rules"      // Rule set loading and overrides
	CLI        = "evm_cli"        // Command line tool
)

var knownModules = []string{Interp, Frame, Journal, Precompile, State, Rules, CLI}

var root atomic.Value

func init() {
	root.Store(NewLogger(DiscardHandler()))
}

func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(lvl)) {
	case "MAX", "MAXVERBOSITY":
		return levelMaxVerbosity, nil
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "CRIT", "CRITICAL":
		return LevelCrit, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLoggerTo installs a logger writing to w, as JSON lines when asJSON
// is set.
func InitLoggerTo(w io.Writer, logLevel string, asJSON bool) error {
	lvl, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if asJSON {
		SetDefault(NewLogger(JSONHandlerWithLevel(w, lvl)))
	} else {
		SetDefault(NewLogger(NewTerminalHandlerWithLevel(w, lvl, true)))
	}
	return nil
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

func Root() Logger {
	return root.Load().(Logger)
}

// moduleSet tracks which modules pass Trace and Debug records.
type moduleSet struct {
	mu      sync.RWMutex
	enabled map[string]bool
}

func newModuleSet(on ...string) *moduleSet {
	s := &moduleSet{enabled: make(map[string]bool, len(knownModules))}
	for _, m := range on {
		s.enabled[m] = true
	}
	return s
}

func (s *moduleSet) set(module string, on bool) {
	s.mu.Lock()
	s.enabled[module] = on
	s.mu.Unlock()
}

func (s *moduleSet) on(module string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled[module]
}

// Interp is off by default: it logs every instruction.
var modules = newModuleSet(Frame, Rules, CLI)

func EnableModule(module string)  { modules.set(module, true) }
func DisableModule(module string) { modules.set(module, false) }

// EnableModules takes a comma separated list, e.g. "evm_interp,evm_journal". "all" enables every known module.
func EnableModules(list string) {
	for _, m := range strings.Split(list, ",") {
		switch m = strings.TrimSpace(m); m {
		case "":
		case "all":
			for _, known := range knownModules {
				EnableModule(known)
			}
		default:
			EnableModule(m)
		}
	}
}

// IsModuleEnabled lets hot paths skip building log arguments.
func IsModuleEnabled(module string) bool { return modules.on(module) }

func Trace(module string, msg string, ctx ...any) {
	if modules.on(module) {
		Root().Write(LevelTrace, module, msg, ctx...)
	}
}

func Debug(module string, msg string, ctx ...any) {
	if modules.on(module) {
		Root().Write(LevelDebug, module, msg, ctx...)
	}
}

func Info(module string, msg string, ctx ...any)  { Root().Write(LevelInfo, module, msg, ctx...) }
func Warn(module string, msg string, ctx ...any)  { Root().Write(LevelWarn, module, msg, ctx...) }
func Error(module string, msg string, ctx ...any) { Root().Write(LevelError, module, msg, ctx...) }

// Crit logs and exits the process.
func Crit(module string, msg string, ctx ...any) { Root().Write(LevelCrit, module, msg, ctx...) }

func RecordLogs() { Root().RecordLogs() }

func GetRecordedLogs() ([]byte, error) { return Root().GetRecordedLogs() }
