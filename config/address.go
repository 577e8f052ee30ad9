package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Address parses PodConfig.Address (a decimal or "0x"-prefixed hex
// string) into the 32-bit value used throughout the packet/message/
// exchange packages.
func (p PodConfig) Address() (uint32, error) {
	s := strings.TrimSpace(p.AddressHex)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("config: invalid pod address %q: %w", p.AddressHex, err)
	}
	return uint32(v), nil
}
