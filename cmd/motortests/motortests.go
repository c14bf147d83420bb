package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tigerbot-team/rcdrive/pkg/config"
	"github.com/tigerbot-team/rcdrive/pkg/drive"
	"github.com/tigerbot-team/rcdrive/pkg/hardware"
)

func main() {
	env, err := config.ParseEnv()
	if err != nil {
		fmt.Println("Failed to parse environment", err)
		return
	}
	cfg, err := config.LoadFromEnv(env)
	if err != nil {
		fmt.Println("Failed to load config", err)
		return
	}
	hw, err := hardware.New(cfg)
	if err != nil {
		fmt.Println("Failed to open hardware", err)
		return
	}
	defer hw.Shutdown()

	maxSpeed := cfg.Calibration.MaxSpeed
	fmt.Printf(
		`Commands:
    m <left> <right>   # Set motor speeds
    s                  # Stop

<left>, <right>   Speed -%d to %d; clamped
`, maxSpeed, maxSpeed)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nFailed to read stdin: ", err)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		var setErr error
		switch parts[0] {
		case "m":
			if len(parts) < 3 {
				fmt.Println("Not enough parameters")
				continue
			}
			l, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Println("Expected int, not ", parts[1])
				continue
			}
			r, err := strconv.Atoi(parts[2])
			if err != nil {
				fmt.Println("Expected int, not ", parts[2])
				continue
			}
			left := drive.Clamp(drive.Speed(l), maxSpeed)
			right := drive.Clamp(drive.Speed(r), maxSpeed)
			fmt.Printf("Setting motors to %d, %d\n", left, right)
			setErr = hw.Motors.SetSpeeds(left, right)
		case "s":
			fmt.Println("Stopping")
			setErr = hw.Motors.SetSpeeds(0, 0)
		default:
			fmt.Println("Unknown command", parts[0])
			continue
		}
		if setErr != nil {
			fmt.Println("Failed to set motor speeds: ", setErr)
			return
		}
	}
}
