// FILE: example/reconfig/main.go
package main

import (
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/lixenwraith/fanlog"
)

// Runtime overrides racing a steady producer
func main() {
	var count atomic.Int64

	logger, err := log.NewBuilder().Name("reconfig").Async(256, log.BlockRetry).Build()
	if err != nil {
		fmt.Printf("Build error: %v\n", err)
		return
	}

	stop := make(chan struct{})
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			logger.Info("Test log", i)
			logger.Debug("Only visible at debug", i)
			count.Add(1)
			time.Sleep(time.Millisecond)
		}
	}()

	overrides := [][]string{
		{"level=debug"},
		{"format=json"},
		{"short_level=true", "format=txt"},
		{"show_goroutine=true", "capture_goroutine=true"},
		{"level=warn"},
		{"queue_size=1024"}, // rejected while running
	}
	for _, o := range overrides {
		if err := logger.ApplyOverride(o...); err != nil {
			fmt.Printf("Override %v error: %v\n", o, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	close(stop)
	fmt.Printf("Total records attempted: %d\n", count.Load())

	if err := logger.Close(time.Second); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}
	st := logger.Stats()
	fmt.Printf("logged=%d dropped=%d delivered=%d\n", st.Logged, st.Dropped, st.Dispatcher.Delivered)
}
