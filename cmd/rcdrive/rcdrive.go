package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tigerbot-team/rcdrive/pkg/config"
	"github.com/tigerbot-team/rcdrive/pkg/hardware"
	"github.com/tigerbot-team/rcdrive/pkg/rcmode"
)

func main() {
	fmt.Println("---- RC drive ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	env, err := config.ParseEnv()
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadFromEnv(env)
	if err != nil {
		log.Fatalf("Bad config: %v", err)
	}
	fmt.Printf("Using config: %+v\n", cfg)
	if err := config.WriteInUse(env.ConfigFile, cfg); err != nil {
		fmt.Println(err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	// Initialise the hardware.
	hw, err := hardware.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise hardware: %v", err)
	}
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		hw.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()

	fmt.Println("Zeroing motors")
	if err := hw.Motors.SetSpeeds(0, 0); err != nil {
		fmt.Println("Failed to zero motors:", err)
	}
	hw.Start(ctx)

	mode, err := rcmode.New(rcmode.Config{
		Calibration:  cfg.Calibration,
		Period:       cfg.Loop.Period,
		Settle:       cfg.Loop.Settle,
		EnableSound:  cfg.Sounds.Enable,
		DisableSound: cfg.Sounds.Disable,
	}, rcmode.Hardware{
		Throttle: hw.Throttle,
		Steering: hw.Steering,
		Button:   hw.Button,
		Motors:   hw.Motors,
		Display:  hw.Display,
		Sounds:   hw.Sounds,
	})
	if err != nil {
		fmt.Println("Failed to start RC mode:", err)
		cancel()
		return
	}

	fmt.Printf("----- %s -----\n", mode.Name())
	mode.Start(ctx)

	watchdog := time.NewTicker(5 * time.Second)
	defer watchdog.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("Context done, stopping RC mode and shutting down")
			mode.Stop()
			return
		case <-watchdog.C:
			fmt.Println("Main loop still running:", hardware.StatusLine(mode.State()))
		}
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
