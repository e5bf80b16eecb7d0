package device

import (
	"testing"

	"golang.org/x/text/encoding/unicode"
)

const wmicSample = "DeviceID  Size        \r\r\nE:        16005464064 \r\r\nF:                    \r\r\n\r\r\n"

func TestParseWMIC(t *testing.T) {
	devices := ParseWMIC([]byte(wmicSample))
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %+v", devices)
	}

	e := devices[0]
	if e.ID != "E:" || e.Size != "14.9GB" || e.Model != RemovableDriveModel || e.MountPoint != `E:\` {
		t.Fatalf("unexpected device: %+v", e)
	}
	if len(e.Partitions) != 1 || e.Partitions[0] != (Partition{ID: "E:", Size: "14.9GB", MountPoint: `E:\`}) {
		t.Fatalf("unexpected partition: %+v", e.Partitions)
	}

	f := devices[1]
	if f.Size != UnknownSize || f.Partitions[0].Size != UnknownSize {
		t.Fatalf("expected Unknown size for empty reader: %+v", f)
	}
}

func TestParseWMICColumnOrder(t *testing.T) {
	devices := ParseWMIC([]byte("Size        DeviceID\n0           G:\nabc         H:\n"))
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %+v", devices)
	}
	if devices[0].ID != "G:" || devices[0].Size != UnknownSize {
		t.Fatalf("zero size should be Unknown: %+v", devices[0])
	}
	if devices[1].ID != "H:" || devices[1].Size != UnknownSize {
		t.Fatalf("non-numeric size should be Unknown: %+v", devices[1])
	}
}

func TestParseWMICUTF16(t *testing.T) {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := encoder.Bytes([]byte(wmicSample))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	devices := ParseWMIC(encoded)
	if len(devices) != 2 || devices[0].ID != "E:" {
		t.Fatalf("UTF-16 output not decoded: %+v", devices)
	}
}

func TestParseWMICEmpty(t *testing.T) {
	if devices := ParseWMIC(nil); devices == nil || len(devices) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", devices)
	}
	if devices := ParseWMIC([]byte("No Instance(s) Available.\r\n")); len(devices) != 0 {
		t.Fatalf("expected no devices, got %+v", devices)
	}
}
