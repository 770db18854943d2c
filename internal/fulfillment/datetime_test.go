package fulfillment

import "testing"

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{name: "iso", value: "2026-05-30", want: "2026-05-30"},
		{name: "padded", value: " 2026-05-30 ", want: "2026-05-30"},
		{name: "timestamp", value: "2026-05-30T12:00:00Z", want: "2026-05-30"},
		{name: "object", value: map[string]any{"year": 2026.0, "month": 5.0, "day": 30.0}, want: "2026-05-30"},
		{name: "object with strings", value: map[string]any{"year": "2026", "month": "5", "day": "3"}, want: "2026-05-03"},
		{name: "impossible day", value: map[string]any{"year": 2026.0, "month": 2.0, "day": 30.0}, wantErr: true},
		{name: "missing day", value: map[string]any{"year": 2026.0, "month": 2.0}, wantErr: true},
		{name: "free text", value: "next tuesday", wantErr: true},
		{name: "us format", value: "05/30/2026", wantErr: true},
		{name: "number", value: 20260530, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{name: "hh:mm", value: "14:30", want: "14:30"},
		{name: "single digit hour", value: "9:05", want: "09:05"},
		{name: "seconds", value: "14:30:00", want: "14:30"},
		{name: "meridiem", value: "3pm", want: "15:00"},
		{name: "meridiem with minutes", value: "3:15 PM", want: "15:15"},
		{name: "object", value: map[string]any{"hours": 9.0, "minutes": 0.0}, want: "09:00"},
		{name: "object without minutes", value: map[string]any{"hours": 17.0}, want: "17:00"},
		{name: "hour out of range", value: map[string]any{"hours": 25.0}, wantErr: true},
		{name: "fractional", value: map[string]any{"hours": 9.5}, wantErr: true},
		{name: "garbage", value: "noonish", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseTime() = %q, want %q", got, tt.want)
			}
		})
	}
}
