package protocol

import "testing"

func TestIsSupported(t *testing.T) {
	if !IsSupported(DefaultProtocolVersion) {
		t.Error("Default protocol version must be supported")
	}
	if IsSupported("1823-01-01") {
		t.Error("Unknown version reported as supported")
	}
}

func TestDefaultCapabilitiesShape(t *testing.T) {
	caps := DefaultCapabilities()
	for _, key := range []string{"tools", "resources", "prompts"} {
		if _, ok := caps[key]; !ok {
			t.Errorf("Missing capability %q", key)
		}
	}
}
