// Command podexchange sends one request to a paired Pod and prints its
// assembled response, following the retrieved teacher's appserver.go
// convention of a single pflag-parsed entry point wiring config, a
// logger, and a long-lived session together.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"podexchange/applog"
	"podexchange/config"
	"podexchange/exchange"
	"podexchange/message"
	"podexchange/radio"
	"podexchange/radio/gpioreset"
	"podexchange/radio/netbridge"
	"podexchange/radio/serialdriver"
	"podexchange/radio/usbdiscover"
)

func main() {
	configFile := pflag.StringP("config-file", "c", "podexchange.yaml", "Configuration file name.")
	help := pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: podexchange [flags] <hex-request-body>\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}
	if len(pflag.Args()) != 1 {
		fmt.Fprintln(os.Stderr, "exactly one argument required: the hex-encoded request body")
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(*configFile, pflag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "podexchange:", err)
		os.Exit(1)
	}
}

func run(configFile, hexBody string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger, err := applog.New(applog.Options{Level: cfg.Log.Level, Dir: cfg.Log.Dir})
	if err != nil {
		return err
	}

	address, err := cfg.Pod.Address()
	if err != nil {
		return err
	}

	body, err := decodeHex(hexBody)
	if err != nil {
		return fmt.Errorf("request body: %w", err)
	}

	driver, err := openDriver(cfg.Radio)
	if err != nil {
		return err
	}
	defer func() {
		if derr := driver.Disconnect(true); derr != nil {
			logger.Warn("disconnect failed", "error", derr)
		}
	}()

	opts := []exchange.Option{exchange.WithLogger(logger)}
	if cfg.Resume.MessageSequence != nil {
		opts = append(opts, exchange.WithMessageSequenceSeed(*cfg.Resume.MessageSequence))
	}
	if cfg.Resume.PacketSequence != nil {
		opts = append(opts, exchange.WithPacketSequenceSeed(*cfg.Resume.PacketSequence))
	}
	engine := exchange.New(driver, opts...)

	req := message.NewOutgoing(address, body)
	resp, err := engine.SendRequestGetResponse(context.Background(), req, false)
	if err != nil {
		return fmt.Errorf("exchange failed: %w", err)
	}

	fmt.Printf("%x\n", resp.Body())
	return nil
}

func openDriver(cfg config.RadioConfig) (radio.Driver, error) {
	switch cfg.Driver {
	case "netbridge":
		address, err := netbridge.Discover(context.Background(), cfg.BridgeServiceName, cfg.BridgeDiscoveryTimeout)
		if err != nil {
			return nil, err
		}
		return netbridge.Dial(address, cfg.BridgeDiscoveryTimeout)

	case "serial", "":
		device := cfg.SerialDevice
		if device == "" {
			adapters, err := usbdiscover.Find("", "")
			if err != nil {
				return nil, err
			}
			if len(adapters) == 0 {
				return nil, fmt.Errorf("no serial adapter found; set radio.serial_device")
			}
			device = adapters[0].DevicePath
		}
		if cfg.ResetGPIOChip != "" {
			line, err := gpioreset.Open(cfg.ResetGPIOChip, cfg.ResetGPIOLine)
			if err != nil {
				return nil, err
			}
			if err := line.Pulse(100 * time.Millisecond); err != nil {
				return nil, err
			}
			if err := line.Close(); err != nil {
				return nil, err
			}
		}
		return serialdriver.Open(device, 0)

	default:
		return nil, fmt.Errorf("unknown radio driver %q", cfg.Driver)
	}
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}
