package interest

import (
	"errors"
	"testing"
	"time"
)

func TestPrepaid(t *testing.T) {
	tests := []struct {
		name       string
		principal  int64
		rate       float64
		termMonths int
		want       int64
		wantErr    error
	}{
		{
			name:       "one million at six percent over twelve months",
			principal:  1_000_000,
			rate:       6,
			termMonths: 12,
			want:       60_000,
		},
		{
			name:       "six month term pays half a year",
			principal:  1_000_000,
			rate:       6,
			termMonths: 6,
			want:       30_000,
		},
		{
			name:       "zero principal pays nothing",
			principal:  0,
			rate:       6,
			termMonths: 12,
			want:       0,
		},
		{
			name:       "fractional result rounds to whole unit",
			principal:  1_000,
			rate:       5.5,
			termMonths: 7,
			want:       32, // 1000*5.5*7/1200 = 32.08...
		},
		{
			name:      "negative principal rejected",
			principal: -1,
			rate:      6, termMonths: 12,
			wantErr: ErrNegativeInput,
		},
		{
			name:      "negative rate rejected",
			principal: 1_000_000,
			rate:      -6, termMonths: 12,
			wantErr: ErrNegativeInput,
		},
		{
			name:      "negative term rejected",
			principal: 1_000_000,
			rate:      6, termMonths: -1,
			wantErr: ErrNegativeInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Prepaid(tt.principal, tt.rate, tt.termMonths)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMonthly(t *testing.T) {
	got, err := Monthly(1_060_000, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5_300 {
		t.Fatalf("expected 5300, got %d", got)
	}

	if _, err := Monthly(-1, 6); !errors.Is(err, ErrNegativeInput) {
		t.Fatalf("expected ErrNegativeInput, got %v", err)
	}
}

func TestMonthlyCompoundsWhenReapplied(t *testing.T) {
	balance := int64(1_000_000)
	for i := 0; i < 3; i++ {
		interest, err := Monthly(balance, 12)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		balance += interest
	}
	// 1% per month compounded three times: 1,000,000 -> 1,030,301.
	if balance != 1_030_301 {
		t.Fatalf("expected 1030301, got %d", balance)
	}
}

func TestEndOfTermUsesPrincipalNotBalance(t *testing.T) {
	got, err := EndOfTerm(1_000_000, 6, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 60_000 {
		t.Fatalf("expected 60000, got %d", got)
	}

	partial, err := EndOfTerm(1_000_000, 6, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if partial != 25_000 {
		t.Fatalf("expected 25000, got %d", partial)
	}
}

func TestPrepaidRoundTripRecoversPrincipal(t *testing.T) {
	const (
		principal = int64(2_500_000)
		rate      = 7.2
		months    = 9
	)
	interest, err := Prepaid(principal, rate, months)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Reverse the formula: P = I * 1200 / (r * m). Allow one unit of rounding.
	recovered := float64(interest) * 12 * 100 / (rate * float64(months))
	diff := recovered - float64(principal)
	if diff < 0 {
		diff = -diff
	}
	if diff > 20 { // 1200/(r*m) units of rounding slack
		t.Fatalf("round trip drifted: recovered %.2f from principal %d", recovered, principal)
	}

	again, err := Prepaid(principal, rate, months)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != interest {
		t.Fatalf("formula not deterministic: %d vs %d", again, interest)
	}
}

func TestElapsedMonths(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before start", start.AddDate(0, 0, -1), 0},
		{"same day", start, 0},
		{"one day short of a month", time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), 0},
		{"exactly one month", time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), 1},
		{"mid second month", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 1},
		{"one year", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedMonths(start, tt.now); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestIsMonthlyAnniversary(t *testing.T) {
	start := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	if IsMonthlyAnniversary(start, start) {
		t.Fatal("start day itself is not an anniversary")
	}
	if !IsMonthlyAnniversary(start, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("expected 15 Feb to be an anniversary")
	}
	if IsMonthlyAnniversary(start, time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("did not expect 16 Feb to be an anniversary")
	}
	if !IsMonthlyAnniversary(start, time.Date(2025, 1, 15, 23, 0, 0, 0, time.UTC)) {
		t.Fatal("expected the twelfth anniversary to register")
	}
}
