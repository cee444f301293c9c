package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	log "github.com/lixenwraith/fanlog"
)

const configBasePath = "logstress"

var tomlContent = `
[logstress]
  name = "stress_test"
  level = "debug"
  format = "txt"
  async = true
  queue_size = 512
  overflow_policy = "block_retry"
  workers = 1
  flush_interval_ms = 50
  enable_console = false
  file_mode = "rotating"
  file = "./logs/stress.log"
  max_size_kb = 1024
  max_files = 8
  heartbeat_interval_s = 2
`

var levels = []log.Level{
	log.LevelDebug,
	log.LevelInfo,
	log.LevelWarn,
	log.LevelError,
}

func generateRandomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.Intn(len(chars))])
	}
	return sb.String()
}

func logBurst(logger *log.Logger, burstID, perBurst, maxMessage int) {
	for i := 0; i < perBurst; i++ {
		msg := generateRandomMessage(rand.Intn(maxMessage) + 10)
		logger.Log(levels[rand.Intn(len(levels))], msg, "bst", burstID, "seq", i, "rnd", rand.Int63())
	}
}

func main() {
	configFile := flag.String("config", "stress_config.toml", "config file, created with defaults when missing")
	bursts := flag.Int("bursts", 100, "number of bursts")
	perBurst := flag.Int("per-burst", 500, "records per burst")
	producers := flag.Int("producers", 64, "concurrent producer goroutines")
	maxMessage := flag.Int("max-message", 2000, "maximum random message size")
	overflow := flag.String("overflow", "", "override overflow_policy (block_retry or discard_log_msg)")
	flag.Parse()

	fmt.Println("--- Logger Stress Test ---")

	if _, err := os.Stat(*configFile); os.IsNotExist(err) {
		if err := os.WriteFile(*configFile, []byte(tomlContent), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created config file: %s\n", *configFile)
	}

	cfg, err := log.NewConfigFromFile(*configFile, configBasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *overflow != "" {
		cfg.OverflowPolicy = *overflow
	}

	logger, err := log.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logger initialized. Writing to %s (policy %s, queue %d)\n", cfg.File, cfg.OverflowPolicy, cfg.QueueSize)

	fmt.Printf("Starting: %d producers, %d bursts, %d records/burst. Ctrl+C stops early.\n",
		*producers, *bursts, *perBurst)

	burstChan := make(chan int, *producers)
	var wg sync.WaitGroup
	var completed atomic.Int64
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stopChan := make(chan struct{})

	go func() {
		<-sigChan
		fmt.Println("\n[Signal Received] Stopping burst generation...")
		close(stopChan)
	}()

	for i := 0; i < *producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for burstID := range burstChan {
				logBurst(logger, burstID, *perBurst, *maxMessage)
				if n := completed.Add(1); n%10 == 0 || n == int64(*bursts) {
					fmt.Printf("\rProgress: %d/%d bursts completed", n, *bursts)
				}
			}
		}()
	}

	startTime := time.Now()
submit:
	for i := 1; i <= *bursts; i++ {
		select {
		case burstChan <- i:
		case <-stopChan:
			break submit
		}
	}
	close(burstChan)

	wg.Wait()
	duration := time.Since(startTime)
	done := completed.Load()

	fmt.Printf("\n--- Test Finished ---\n")
	fmt.Printf("Completed %d/%d bursts in %v\n", done, *bursts, duration.Round(time.Millisecond))
	if done > 0 && duration.Seconds() > 0 {
		fmt.Printf("Approximate records/sec: %.2f\n", float64(done*int64(*perBurst))/duration.Seconds())
	}

	fmt.Println("Shutting down logger (allowing up to 10s)...")
	if err := logger.Close(10 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
	}

	st := logger.Stats()
	fmt.Printf("logged=%s dropped=%s sink_errors=%d\n",
		humanize.Comma(int64(st.Logged)), humanize.Comma(int64(st.Dropped)), st.SinkErrors)
	fmt.Printf("enqueued=%s delivered=%s discarded=%s retries=%s\n",
		humanize.Comma(int64(st.Dispatcher.Enqueued)), humanize.Comma(int64(st.Dispatcher.Delivered)),
		humanize.Comma(int64(st.Dispatcher.Discarded)), humanize.Comma(int64(st.Dispatcher.Retries)))
}
