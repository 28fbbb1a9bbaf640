package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/odvcencio/sitter/internal/logutil"
)

var (
	// Set via SITTER_DEBUG in the environment
	Debug bool
	// Set via SITTER_TRACE in the environment
	Trace bool
	// Set via SITTER_PARALLEL in the environment
	NumParallel int
	// Set via SITTER_MAX_STACK_DEPTH in the environment
	MaxStackDepth int
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"SITTER_DEBUG":           {"SITTER_DEBUG", Debug, "Show debug logging (e.g. SITTER_DEBUG=1)"},
		"SITTER_TRACE":           {"SITTER_TRACE", Trace, "Log every lex and parse action"},
		"SITTER_PARALLEL":        {"SITTER_PARALLEL", NumParallel, "Maximum number of files parsed concurrently (default: number of CPUs)"},
		"SITTER_MAX_STACK_DEPTH": {"SITTER_MAX_STACK_DEPTH", MaxStackDepth, "Parse stack limit, 0 for the built-in default"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// LogLevel returns the level implied by SITTER_DEBUG and SITTER_TRACE.
func LogLevel() slog.Level {
	switch {
	case Trace:
		return logutil.LevelTrace
	case Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

func LoadConfig() {
	Debug = false
	if debug := clean("SITTER_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	Trace = false
	if trace := clean("SITTER_TRACE"); trace != "" {
		d, err := strconv.ParseBool(trace)
		Trace = err != nil || d
	}

	NumParallel = runtime.NumCPU()
	if onp := clean("SITTER_PARALLEL"); onp != "" {
		val, err := strconv.Atoi(onp)
		if err != nil || val <= 0 {
			slog.Error("invalid setting must be greater than zero", "SITTER_PARALLEL", onp, "error", err)
		} else {
			NumParallel = val
		}
	}

	MaxStackDepth = 0
	if depth := clean("SITTER_MAX_STACK_DEPTH"); depth != "" {
		val, err := strconv.Atoi(depth)
		if err != nil || val < 0 {
			slog.Error("invalid setting", "SITTER_MAX_STACK_DEPTH", depth, "error", err)
		} else {
			MaxStackDepth = val
		}
	}
}
