package domain

import "testing"

func TestContextKey(t *testing.T) {
	tests := map[string]string{
		" cable_channel_brick-wall ": "CABLE_CHANNEL_BRICK-WALL",
		"dry wall":                   "DRY WALL",
		"":                           "",
	}
	for input, want := range tests {
		if got := ContextKey(input); got != want {
			t.Errorf("ContextKey(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"camera", "CAMERA"},
		{"  access point ", "ACCESS_POINT"},
		{"network-outlet", "NETWORK_OUTLET"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeKey(tt.input); got != tt.expected {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDeviceType(t *testing.T) {
	tests := []struct {
		input    string
		expected DeviceType
	}{
		{"CAMERA", DeviceTypeCamera},
		{"camera", DeviceTypeCamera},
		{"Access-Point", DeviceTypeAccessPoint},
		{"network outlet", DeviceTypeNetworkOutlet},
		{"reader", DeviceTypeReader},
		{"turnstile", DeviceTypeTurnstile},
		{"other_network_device", DeviceTypeOtherNetworkDevice},
		{"", DeviceTypeUnknown},
		{"   ", DeviceTypeUnknown},
		{"toaster", DeviceTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseDeviceType(tt.input); got != tt.expected {
				t.Errorf("ParseDeviceType(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseLinkType(t *testing.T) {
	tests := []struct {
		input    string
		expected LinkType
	}{
		{"utp", LinkTypeUTP},
		{"Power", LinkTypePower},
		{"fiber", LinkTypeFiber},
		{"wi-fi", LinkTypeWiFi},
		{"coax", LinkTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLinkType(tt.input); got != tt.expected {
				t.Errorf("ParseLinkType(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseRouteVariants(t *testing.T) {
	if got := ParseRouteType("corrugated pipe"); got != RouteTypeCorrugatedPipe {
		t.Errorf("expected %s, got %s", RouteTypeCorrugatedPipe, got)
	}
	if got := ParseRouteType("UNKNOWN"); got != RouteTypeUnknown {
		t.Errorf("expected %s, got %s", RouteTypeUnknown, got)
	}
	if got := ParseOrientation("vertical"); got != OrientationVertical {
		t.Errorf("expected %s, got %s", OrientationVertical, got)
	}
	if got := ParseOrientation("diagonal"); got != OrientationUnknown {
		t.Errorf("expected %s, got %s", OrientationUnknown, got)
	}
	if got := ParseFixingMethod("pe-ties"); got != FixingMethodPETies {
		t.Errorf("expected %s, got %s", FixingMethodPETies, got)
	}
	if got := ParseFixingMethod("glue"); got != FixingMethodUnknown {
		t.Errorf("expected %s, got %s", FixingMethodUnknown, got)
	}
}

func TestTopologyLink(t *testing.T) {
	t.Run("wifi type counts as wireless", func(t *testing.T) {
		link := TopologyLink{ID: "l1", LinkType: "WIFI"}
		if !link.IsWireless() {
			t.Error("expected WIFI link to be wireless")
		}
	})

	t.Run("wireless flag wins over cable type", func(t *testing.T) {
		link := TopologyLink{ID: "l1", LinkType: "UTP", Wireless: true}
		if !link.IsWireless() {
			t.Error("expected flagged link to be wireless")
		}
	})

	t.Run("touches either end", func(t *testing.T) {
		link := TopologyLink{ID: "l1", FromNodeID: "n1", ToNodeID: "n2"}
		if !link.Touches("n1") || !link.Touches("n2") {
			t.Error("expected link to touch both nodes")
		}
		if link.Touches("n3") || link.Touches("") {
			t.Error("expected link not to touch n3 or empty id")
		}
	})
}
