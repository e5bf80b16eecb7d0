package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shuttle/internal/command"
)

var lsblkArgs = []string{"-J", "-o", "NAME,SIZE,TYPE,MOUNTPOINT,TRAN,MODEL,RM"}

type lsblkStrategy struct {
	runner  command.Runner
	timeout time.Duration
}

func (lsblkStrategy) name() string { return "lsblk" }

func (s lsblkStrategy) detect(ctx context.Context) ([]Device, error) {
	result, err := s.runner.Run(ctx, s.timeout, "lsblk", lsblkArgs...)
	if err != nil {
		if isTerminal(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: lsblk: %w", ErrDetectionUnavailable, err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: lsblk exited %d: %s", ErrDetectionUnavailable, result.ExitCode, result.Output())
	}
	return ParseLsblk([]byte(result.Stdout))
}

type lsblkReport struct {
	BlockDevices []json.RawMessage `json:"blockdevices"`
}

type lsblkNode struct {
	Name        string            `json:"name"`
	Size        flexString        `json:"size"`
	Type        string            `json:"type"`
	MountPoint  *string           `json:"mountpoint"`
	MountPoints []*string         `json:"mountpoints"`
	Tran        *string           `json:"tran"`
	Model       *string           `json:"model"`
	RM          flexBool          `json:"rm"`
	Children    []json.RawMessage `json:"children"`
}

// ParseLsblk converts `lsblk -J` output into removable disks. Top-level
// elements that fail to decode are skipped; a document that is not JSON at
// all is reported as ErrDetectionUnavailable.
func ParseLsblk(data []byte) ([]Device, error) {
	var report lsblkReport
	if err := json.Unmarshal(bytes.TrimSpace(data), &report); err != nil {
		return nil, fmt.Errorf("%w: parse lsblk output: %w", ErrDetectionUnavailable, err)
	}

	devices := []Device{}
	for _, raw := range report.BlockDevices {
		var node lsblkNode
		if err := json.Unmarshal(raw, &node); err != nil || node.Name == "" {
			continue
		}
		if node.Type != "disk" {
			continue
		}
		if deref(node.Tran) != "usb" && !bool(node.RM) {
			continue
		}

		dev := Device{
			ID:         "/dev/" + node.Name,
			Size:       sizeOrUnknown(string(node.Size)),
			Model:      modelOrDefault(deref(node.Model)),
			Partitions: []Partition{},
		}
		for _, rawChild := range node.Children {
			var child lsblkNode
			if err := json.Unmarshal(rawChild, &child); err != nil || child.Name == "" {
				continue
			}
			dev.Partitions = append(dev.Partitions, Partition{
				ID:         "/dev/" + child.Name,
				Size:       sizeOrUnknown(string(child.Size)),
				MountPoint: child.mountPoint(),
			})
		}
		dev.syncMountPoint()
		devices = append(devices, dev)
	}
	return devices, nil
}

// mountPoint prefers the legacy single column and falls back to the first
// entry of the list column newer lsblk releases emit.
func (n lsblkNode) mountPoint() string {
	if mp := strings.TrimSpace(deref(n.MountPoint)); mp != "" {
		return mp
	}
	for _, mp := range n.MountPoints {
		if value := strings.TrimSpace(deref(mp)); value != "" {
			return value
		}
	}
	return ""
}

// flexBool accepts true/false, 0/1 and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(text) {
	case "1", "true":
		*b = true
	case "", "0", "false", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", text)
	}
	return nil
}

// flexString accepts a JSON string, number or null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*s = flexString(text)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil {
		return err
	}
	*s = flexString(num.String())
	return nil
}

// flexUint accepts a JSON number, a numeric string or null. Invalid tracks
// values that were present but not numeric.
type flexUint struct {
	Value   uint64
	Valid   bool
	Invalid bool
}

func (u *flexUint) UnmarshalJSON(data []byte) error {
	var text flexString
	if err := text.UnmarshalJSON(data); err != nil {
		u.Invalid = true
		return nil
	}
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f < 0 {
			u.Invalid = true
			return nil
		}
		value = uint64(f)
	}
	u.Value = value
	u.Valid = true
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sizeOrUnknown(size string) string {
	if size = strings.TrimSpace(size); size == "" {
		return UnknownSize
	}
	return size
}

func modelOrDefault(model string) string {
	if model = strings.TrimSpace(model); model == "" {
		return DefaultModel
	}
	return model
}
