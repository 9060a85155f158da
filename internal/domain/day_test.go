package domain

import "testing"

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid day", input: "2025-01-05"},
		{name: "valid day with no data yet", input: "2030-12-31"},
		{name: "unpadded month and day", input: "2025-1-5", wantErr: true},
		{name: "no separators", input: "20250105", wantErr: true},
		{name: "impossible calendar value", input: "2025-13-40", wantErr: true},
		{name: "trailing garbage", input: "2025-01-05T00:00:00Z", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := ParseDay(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDay(%q) = %q, want error", tt.input, day)
				}
				if !IsValidationError(err) {
					t.Errorf("IsValidationError() = false for %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDay(%q) error: %v", tt.input, err)
			}
			if day.String() != tt.input {
				t.Errorf("day = %q, want %q", day, tt.input)
			}
		})
	}
}

func TestToday(t *testing.T) {
	if _, err := ParseDay(Today().String()); err != nil {
		t.Errorf("Today() = %q is not a valid day key: %v", Today(), err)
	}
}
