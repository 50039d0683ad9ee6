package audio

import (
	"testing"
)

func TestParsePortList(t *testing.T) {
	output := `Output ports:
alsa_input.usb-Blue_Yeti:capture_FL
alsa_input.usb-Blue_Yeti:capture_FR
alsa_output.pci-0000_00_1f.3.analog-stereo:monitor_FL
alsa_output.pci-0000_00_1f.3.analog-stereo:monitor_FR
alsa_input.usb-Blue_Yeti:capture_FL

Firefox:output_FL
`

	ports := parsePortList(output)

	expected := []string{
		"alsa_input.usb-Blue_Yeti:capture_FL",
		"alsa_input.usb-Blue_Yeti:capture_FR",
		"Firefox:output_FL",
	}

	if len(ports) != len(expected) {
		t.Fatalf("Expected %d ports, got %d: %v", len(expected), len(ports), ports)
	}
	for i, port := range expected {
		if ports[i] != port {
			t.Errorf("Port %d: expected %s, got %s", i, port, ports[i])
		}
	}
}

func TestParsePortList_Empty(t *testing.T) {
	if ports := parsePortList(""); len(ports) != 0 {
		t.Errorf("Expected no ports, got %v", ports)
	}
}

func TestIsCapturePort(t *testing.T) {
	tests := []struct {
		port     string
		expected bool
	}{
		{"system:capture_1", true},
		{"alsa_output.analog:monitor_FL", false},
		{"alsa_output.analog:Monitor_FR", false},
		{"Scarlett 2i2 USB: Audio (hw:1,0):0", true},
	}

	for _, tt := range tests {
		if got := isCapturePort(tt.port); got != tt.expected {
			t.Errorf("isCapturePort(%q) = %v, expected %v", tt.port, got, tt.expected)
		}
	}
}
