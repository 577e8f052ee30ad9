// Command podexchange-sim runs an in-process Pod simulator exposed on a
// pseudo-terminal, the way the retrieved teacher's kiss.go exposes a
// virtual KISS TNC for other processes to open directly, so another
// copy of podexchange (or any tool speaking the serialdriver adapter
// protocol) can be pointed at it instead of real hardware.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"podexchange/applog"
	"podexchange/radio/simulator"
)

func main() {
	addressHex := pflag.StringP("address", "a", "0x1F00EE01", "Simulated pod address, decimal or 0x-prefixed hex.")
	help := pflag.BoolP("help", "h", false, "Display help text.")
	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	if err := run(*addressHex); err != nil {
		fmt.Fprintln(os.Stderr, "podexchange-sim:", err)
		os.Exit(1)
	}
}

func run(addressHex string) error {
	logger, err := applog.New(applog.Options{Level: "debug"})
	if err != nil {
		return err
	}

	address, err := parseAddress(addressHex)
	if err != nil {
		return err
	}

	pod := simulator.New(address, func(req []byte) []byte {
		logger.Debug("simulated pod handling request", "bytes", len(req))
		return req // default handler: echo the request back verbatim.
	})

	adapter, err := simulator.OpenPty(pod)
	if err != nil {
		return err
	}
	defer adapter.Close()

	logger.Info("pod simulator listening", "device", adapter.SlaveName(), "address", fmt.Sprintf("0x%08X", address))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

func parseAddress(s string) (uint32, error) {
	base := 10
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid pod address %q: %w", s, err)
	}
	return uint32(v), nil
}
