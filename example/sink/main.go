// FILE: example/sink/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/lixenwraith/fanlog"
	"github.com/lixenwraith/fanlog/formatter"
	"github.com/lixenwraith/fanlog/sink"
)

const logDirectory = "./temp_logs"

func main() {
	if err := os.RemoveAll(logDirectory); err != nil {
		fmt.Printf("Warning: could not remove old log directory: %v\n", err)
	}
	if err := os.MkdirAll(logDirectory, 0755); err != nil {
		fmt.Printf("Fatal: could not create log directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- SCENARIO 1: one logger per sink ---")
	runPhase("1.1: File-Only", func() (*log.Logger, error) {
		return log.NewBuilder().Name("file_only").LevelString("debug").NoConsole().
			RotatingFile(filepath.Join(logDirectory, "file_only.log"), 64, 2).Build()
	})
	runPhase("1.2: Stdout-Only", func() (*log.Logger, error) {
		return log.NewBuilder().Name("stdout_only").LevelString("debug").Build()
	})
	runPhase("1.3: Stderr-Only", func() (*log.Logger, error) {
		return log.NewBuilder().Name("stderr_only").LevelString("debug").Console("stderr").Build()
	})
	runPhase("1.4: No-Output", func() (*log.Logger, error) {
		return log.NewBuilder().Name("no_output").NoConsole().Build()
	})

	fmt.Println("\n--- SCENARIO 2: shared sinks through a registry ---")
	sharedSinks()

	fmt.Printf("\nCheck the '%s' directory for log files.\n", logDirectory)
}

func runPhase(name string, build func() (*log.Logger, error)) {
	fmt.Printf("\n[Phase %s]\n", name)
	logger, err := build()
	if err != nil {
		fmt.Printf("  ERROR: %v\n", err)
		os.Exit(1)
	}
	logger.Info("event", "start_phase", "name", name)
	logger.Debug("event", "debug_detail", "name", name)
	logger.Info("event", "end_phase", "name", name)
	if err := logger.Close(500 * time.Millisecond); err != nil {
		fmt.Printf("  WARNING: close error in phase '%s': %v\n", name, err)
	}
}

// sharedSinks fans two async loggers into one errors-only file and the console
func sharedSinks() {
	reg := log.NewRegistry()
	if err := reg.SetAsyncMode(log.DefaultDispatcherConfig()); err != nil {
		fmt.Printf("  ERROR: %v\n", err)
		return
	}
	defer reg.Shutdown(time.Second)

	errFile, err := sink.NewDailyFile(sink.DailyFileConfig{
		Filename: filepath.Join(logDirectory, "errors.log"),
	}, sink.WithLevel(log.LevelError))
	if err != nil {
		fmt.Printf("  ERROR: %v\n", err)
		return
	}
	defer errFile.Close()
	console := sink.Stdout()

	reg.SetFormatter(formatter.New().ShortLevel(true))
	for _, name := range []string{"api", "db"} {
		l, err := reg.Create(name, console, errFile)
		if err != nil {
			fmt.Printf("  ERROR: %v\n", err)
			return
		}
		l.Info("ready")
		l.Errorf("%s failure simulated", name)
	}

	if err := reg.Flush(time.Second); err != nil {
		fmt.Printf("  WARNING: flush: %v\n", err)
	}
}
