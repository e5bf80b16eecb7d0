package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shuttle/internal/command"
)

// powerShellScript walks USB disk drives to their partitions and logical
// disks and prints one compressed JSON object per drive.
const powerShellScript = `
Get-WmiObject Win32_DiskDrive | Where-Object {$_.InterfaceType -eq 'USB'} | ForEach-Object {
    $disk = $_
    $partitions = Get-WmiObject -Query "ASSOCIATORS OF {Win32_DiskDrive.DeviceID='$($disk.DeviceID)'} WHERE AssocClass=Win32_DiskDriveToDiskPartition"
    $volumes = @()
    foreach ($partition in $partitions) {
        $logical = Get-WmiObject -Query "ASSOCIATORS OF {Win32_DiskPartition.DeviceID='$($partition.DeviceID)'} WHERE AssocClass=Win32_LogicalDiskToPartition"
        foreach ($vol in $logical) {
            $volumes += @{
                Letter = $vol.DeviceID
                Size = $vol.Size
            }
        }
    }
    @{
        DeviceID = $disk.DeviceID
        Model = $disk.Model
        Size = $disk.Size
        Volumes = $volumes
    } | ConvertTo-Json -Compress
}
`

type powerShellStrategy struct {
	runner  command.Runner
	timeout time.Duration
}

func (powerShellStrategy) name() string { return "powershell" }

func (s powerShellStrategy) detect(ctx context.Context) ([]Device, error) {
	result, err := s.runner.Run(ctx, s.timeout, "powershell", "-NoProfile", "-NonInteractive", "-Command", powerShellScript)
	if err != nil {
		if isTerminal(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: powershell: %w", ErrDetectionUnavailable, err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: powershell exited %d: %s", ErrDetectionUnavailable, result.ExitCode, result.Output())
	}
	return ParsePowerShell(result.Stdout), nil
}

type psDrive struct {
	DeviceID *string   `json:"DeviceID"`
	Model    *string   `json:"Model"`
	Size     flexUint  `json:"Size"`
	Volumes  psVolumes `json:"Volumes"`
}

type psVolume struct {
	Letter *string  `json:"Letter"`
	Size   flexUint `json:"Size"`
}

// psVolumes tolerates ConvertTo-Json collapsing a one-element array into a
// bare object.
type psVolumes []psVolume

func (v *psVolumes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*v = nil
		return nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var single psVolume
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*v = psVolumes{single}
		return nil
	}
	var many []psVolume
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*v = many
	return nil
}

// ParsePowerShell converts the script's line-delimited JSON into devices.
// Lines that are blank or not valid JSON are skipped.
func ParsePowerShell(output string) []Device {
	devices := []Device{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var drive psDrive
		if err := json.Unmarshal([]byte(line), &drive); err != nil {
			continue
		}

		id := strings.TrimSpace(deref(drive.DeviceID))
		if id == "" {
			id = "Unknown"
		}
		dev := Device{
			ID:         id,
			Size:       windowsSize(drive.Size),
			Model:      modelOrDefault(deref(drive.Model)),
			Partitions: []Partition{},
		}
		for _, vol := range drive.Volumes {
			letter := strings.TrimSpace(deref(vol.Letter))
			if letter == "" {
				continue
			}
			dev.Partitions = append(dev.Partitions, Partition{
				ID:         letter,
				Size:       windowsSize(vol.Size),
				MountPoint: driveRoot(letter),
			})
		}
		dev.syncMountPoint()
		devices = append(devices, dev)
	}
	return devices
}

// windowsSize renders a WMI byte count. Missing sizes read as zero bytes the
// way WMI reports media-less readers; non-numeric sizes are unknown.
func windowsSize(size flexUint) string {
	if size.Invalid {
		return UnknownSize
	}
	return formatGB(size.Value)
}

// driveRoot turns "E:" into the drive root "E:\".
func driveRoot(letter string) string {
	if strings.HasSuffix(letter, `\`) {
		return letter
	}
	return letter + `\`
}
