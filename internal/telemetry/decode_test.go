package telemetry

import (
	"math"
	"testing"

	"github.com/langchou/h2gazer/internal/models"
)

func TestDecodeReading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		want       models.RawReading
		wantSignal *float64
	}{
		{
			name:  "well formed",
			input: `{"temperature":30.5,"mq8":12,"timestamp":1700000000000}`,
			want:  models.RawReading{Temperature: 30.5, MQ8: 12, Timestamp: 1700000000000},
		},
		{
			name:  "missing fields default to zero",
			input: `{"mq8":80}`,
			want:  models.RawReading{MQ8: 80},
		},
		{
			name:  "numeric strings",
			input: `{"temperature":"41.2","mq8":"7","timestamp":"2000"}`,
			want:  models.RawReading{Temperature: 41.2, MQ8: 7, Timestamp: 2000},
		},
		{
			name:  "garbage values",
			input: `{"temperature":"hot","mq8":[1,2],"timestamp":{"s":1}}`,
			want:  models.RawReading{},
		},
		{
			name:  "not json",
			input: `temperature=30`,
			want:  models.RawReading{},
		},
		{
			name:  "null document",
			input: `null`,
			want:  models.RawReading{},
		},
		{
			name:  "negative timestamp sorts as oldest",
			input: `{"temperature":20,"timestamp":-5000}`,
			want:  models.RawReading{Temperature: 20},
		},
		{
			name:  "huge timestamp is clamped",
			input: `{"temperature":20,"timestamp":1e30}`,
			want:  models.RawReading{Temperature: 20, Timestamp: math.MaxInt64},
		},
		{
			name:       "optional signal",
			input:      `{"temperature":1,"signal":64}`,
			want:       models.RawReading{Temperature: 1},
			wantSignal: floatPtr(64),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DecodeReading([]byte(tt.input))
			if got.Temperature != tt.want.Temperature || got.MQ8 != tt.want.MQ8 || got.Timestamp != tt.want.Timestamp {
				t.Errorf("DecodeReading = %+v, want %+v", got, tt.want)
			}
			switch {
			case tt.wantSignal == nil && got.Signal != nil:
				t.Errorf("Signal = %v, want nil", *got.Signal)
			case tt.wantSignal != nil && (got.Signal == nil || *got.Signal != *tt.wantSignal):
				t.Errorf("Signal = %v, want %v", got.Signal, *tt.wantSignal)
			}
		})
	}
}

func TestEncodeDecodeKeepsFields(t *testing.T) {
	t.Parallel()

	in := models.RawReading{Temperature: 55, MQ8: 80, Timestamp: 2000}
	data, err := EncodeReading(in)
	if err != nil {
		t.Fatalf("EncodeReading: %v", err)
	}
	out := DecodeReading(data)
	if out.Temperature != in.Temperature || out.MQ8 != in.MQ8 || out.Timestamp != in.Timestamp || out.Signal != nil {
		t.Fatalf("decoded %+v, want %+v", out, in)
	}
}

func TestPathResolver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template   string
		vehicleID  string
		wantPath   string
		wantShared bool
	}{
		{"", "truck-001", DefaultPath, true},
		{"sensorData", "truck-002", "sensorData", true},
		{"fleet/{vehicle}/sensorData", "truck-003", "fleet/truck-003/sensorData", false},
	}
	for _, tt := range tests {
		p := PathResolver{Template: tt.template}
		if got := p.PathFor(tt.vehicleID); got != tt.wantPath {
			t.Errorf("PathFor(%q) with %q = %q, want %q", tt.vehicleID, tt.template, got, tt.wantPath)
		}
		if got := p.Shared(); got != tt.wantShared {
			t.Errorf("Shared() with %q = %v, want %v", tt.template, got, tt.wantShared)
		}
	}
}

func floatPtr(f float64) *float64 { return &f }
