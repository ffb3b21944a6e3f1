package telemetry

import (
	"context"
	"testing"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{ServiceName: "karaoke-search"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned %v", err)
	}
}

func TestExporterEndpoint(t *testing.T) {
	cases := []struct {
		raw      string
		want     string
		insecure bool
	}{
		{raw: "", want: ""},
		{raw: "http://collector:4318", want: "collector:4318", insecure: true},
		{raw: "https://otel.example.com/", want: "otel.example.com"},
		{raw: "collector:4318", want: "collector:4318", insecure: true},
	}
	for _, tc := range cases {
		got, insecure := exporterEndpoint(tc.raw)
		if got != tc.want || insecure != tc.insecure {
			t.Fatalf("exporterEndpoint(%q) = %q, %v; want %q, %v", tc.raw, got, insecure, tc.want, tc.insecure)
		}
	}
}
