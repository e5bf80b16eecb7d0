package device

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"shuttle/internal/command"
)

var wmicArgs = []string{"logicaldisk", "where", "drivetype=2", "get", "DeviceID,Size"}

type wmicStrategy struct {
	runner  command.Runner
	timeout time.Duration
}

func (wmicStrategy) name() string { return "wmic" }

func (s wmicStrategy) detect(ctx context.Context) ([]Device, error) {
	result, err := s.runner.Run(ctx, s.timeout, "wmic", wmicArgs...)
	if err != nil {
		if isTerminal(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: wmic: %w", ErrDetectionUnavailable, err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: wmic exited %d: %s", ErrDetectionUnavailable, result.ExitCode, result.Output())
	}
	return ParseWMIC([]byte(result.Stdout)), nil
}

// ParseWMIC converts the `wmic logicaldisk ... get DeviceID,Size` table into
// devices with one partition each. Columns are located by header name since
// wmic orders them alphabetically rather than as requested.
func ParseWMIC(raw []byte) []Device {
	lines := nonEmptyLines(decodeConsoleText(raw))
	devices := []Device{}
	if len(lines) == 0 {
		return devices
	}

	idCol, sizeCol := 0, -1
	for i, field := range strings.Fields(lines[0]) {
		switch strings.ToLower(field) {
		case "deviceid":
			idCol = i
		case "size":
			sizeCol = i
		}
	}

	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if idCol >= len(fields) {
			continue
		}
		letter := fields[idCol]
		size := UnknownSize
		if sizeCol >= 0 && sizeCol < len(fields) {
			if n, err := strconv.ParseUint(fields[sizeCol], 10, 64); err == nil && n > 0 {
				size = formatGB(n)
			}
		}
		root := driveRoot(letter)
		devices = append(devices, Device{
			ID:         letter,
			Size:       size,
			Model:      RemovableDriveModel,
			MountPoint: root,
			Partitions: []Partition{{ID: letter, Size: size, MountPoint: root}},
		})
	}
	return devices
}

// decodeConsoleText converts UTF-16 console output to UTF-8. wmic writes
// UTF-16LE when its output is redirected; anything else passes through.
func decodeConsoleText(raw []byte) string {
	if bytes.HasPrefix(raw, []byte{0xFF, 0xFE}) || bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) || looksUTF16LE(raw) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, _, err := transform.Bytes(decoder, raw); err == nil {
			return string(out)
		}
	}
	return string(raw)
}

func looksUTF16LE(raw []byte) bool {
	return len(raw) >= 4 && raw[0] != 0 && raw[1] == 0 && raw[2] != 0 && raw[3] == 0
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
