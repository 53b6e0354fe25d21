package update

import (
	"strings"
	"testing"
)

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"0.4.2", "0.4.2", true},
		{"99.9.9", "99.9.9", true},
		{" 1.0 ", "1.0", true},
		{"10.20.30.40", "10.20.30.40", true},
		{"7", "7", true},

		{"", "", false},
		{"   ", "", false},
		{"v1.0.0", "", false},
		{"1..2", "", false},
		{".", "", false},
		{"1.0.dev1", "", false},
		{"1.0-rc1", "", false},
		{"not-a-version", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeVersion(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeVersion(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Fatalf("NormalizeVersion(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompareDotted(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"0.4.1", "0.4.2", -1},
		{"0.4.2", "0.4.1", 1},
		{"0.9.9", "1.0.0", -1},
		{"1.2", "1.2.1", -1},
		{"1.2.1", "1.2", 1},
		{"1.10", "1.9", 1},
		{"99.9.9", "100.0.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got, err := CompareDotted(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CompareDotted(%q, %q): %v", tt.a, tt.b, err)
			}
			if got != tt.want {
				t.Fatalf("CompareDotted(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if _, err := CompareDotted("bogus", "1.0"); err == nil {
		t.Fatal("expected error for unparseable version")
	}
}

func TestDecideUpgrade(t *testing.T) {
	tests := []struct {
		name      string
		installed string
		latest    string
		want      Decision
		wantMsg   string
	}{
		{
			name:      "first install",
			installed: "",
			latest:    "99.9.9",
			want:      DecisionFirstInstall,
			wantMsg:   "Installing",
		},
		{
			name:      "upgrade needed",
			installed: "0.4.1",
			latest:    "0.4.2",
			want:      DecisionProceed,
			wantMsg:   "Upgrading",
		},
		{
			name:      "already current",
			installed: "0.4.2",
			latest:    "0.4.2",
			want:      DecisionSkip,
			wantMsg:   "Already at latest",
		},
		{
			name:      "index reports older release",
			installed: "0.5.0",
			latest:    "0.4.2",
			want:      DecisionSkip,
			wantMsg:   "not downgrading",
		},
		{
			name:      "unparseable marker proceeds",
			installed: "garbage",
			latest:    "0.4.2",
			want:      DecisionProceed,
			wantMsg:   "comparison skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := DecideUpgrade(tt.installed, tt.latest)
			if got != tt.want {
				t.Fatalf("decision: got %q want %q (msg %q)", got, tt.want, msg)
			}
			if !strings.Contains(msg, tt.wantMsg) {
				t.Fatalf("message %q missing %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestDescribeDecision(t *testing.T) {
	if got := DescribeDecision(DecisionSkip); !strings.Contains(got, "no update needed") {
		t.Fatalf("DescribeDecision(skip) = %q", got)
	}
	if got := DescribeDecision(Decision("odd")); got != "odd" {
		t.Fatalf("DescribeDecision(unknown) = %q", got)
	}
}
