package scan

import (
	"reflect"
	"testing"
	"time"
)

func TestBandOf(t *testing.T) {
	cases := []struct {
		freq uint32
		want Band
	}{
		{2412, Band24},
		{2484, Band24},
		{5180, Band5},
		{5905, Band5},
		{5955, Band6},
		{7115, Band6},
		{900, BandUnknown},
		{0, BandUnknown},
	}
	for _, tc := range cases {
		if got := BandOf(tc.freq); got != tc.want {
			t.Errorf("BandOf(%d) = %s, want %s", tc.freq, got, tc.want)
		}
	}
}

func TestMergeKeepsStrongerRecord(t *testing.T) {
	now := time.Now()
	records := []Record{
		{SSID: "Home", Frequency: 2412, Strength: 40, LastSeen: now},
		{SSID: "Home", Frequency: 2412, Strength: 70, LastSeen: now.Add(-time.Minute)},
	}
	merged := Merge(records)
	if len(merged) != 1 {
		t.Fatalf("expected 1 record, got %d", len(merged))
	}
	if merged[0].Strength != 70 {
		t.Errorf("expected strength 70 to win, got %d", merged[0].Strength)
	}
}

func TestMergeTieBreaksByRecency(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	records := []Record{
		{SSID: "Home", Frequency: 2412, Strength: 55, LastSeen: older},
		{SSID: "Home", Frequency: 2437, Strength: 55, LastSeen: newer},
	}
	merged := Merge(records)
	if len(merged) != 1 {
		t.Fatalf("expected 1 record, got %d", len(merged))
	}
	if !merged[0].LastSeen.Equal(newer) {
		t.Errorf("expected the more recent observation to win the tie")
	}
}

func TestMergeSameNameDifferentBandsStaysSeparate(t *testing.T) {
	records := []Record{
		{SSID: "Home", Frequency: 2412, Strength: 60},
		{SSID: "Home", Frequency: 5180, Strength: 80},
	}
	merged := Merge(records)
	if len(merged) != 2 {
		t.Fatalf("expected 2 records across bands, got %d", len(merged))
	}
}

func TestMergeHiddenNetworksDistinctPerBand(t *testing.T) {
	records := []Record{
		{SSID: "", Frequency: 2412, Strength: 30},
		{SSID: "", Frequency: 5180, Strength: 45},
	}
	merged := Merge(records)
	if len(merged) != 2 {
		t.Fatalf("hidden networks on different bands must stay separate, got %d records", len(merged))
	}
	for _, record := range merged {
		if !record.Hidden() {
			t.Errorf("record unexpectedly not hidden: %+v", record)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	now := time.Now()
	records := []Record{
		{SSID: "Home", Frequency: 2412, Strength: 40, LastSeen: now},
		{SSID: "Home", Frequency: 2437, Strength: 70, LastSeen: now},
		{SSID: "Cafe", Frequency: 5180, Strength: 55, LastSeen: now},
		{SSID: "", Frequency: 2462, Strength: 20, LastSeen: now},
		{SSID: "Home", Frequency: 5200, Strength: 65, LastSeen: now},
	}
	once := Merge(records)
	twice := Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Merge is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergePreservesFirstSeenOrder(t *testing.T) {
	records := []Record{
		{SSID: "Beta", Frequency: 2412, Strength: 10},
		{SSID: "Alpha", Frequency: 2412, Strength: 90},
		{SSID: "Beta", Frequency: 2437, Strength: 95},
	}
	merged := Merge(records)
	if len(merged) != 2 {
		t.Fatalf("expected 2 records, got %d", len(merged))
	}
	if merged[0].SSID != "Beta" || merged[1].SSID != "Alpha" {
		t.Errorf("first-seen order not preserved: %+v", merged)
	}
	if merged[0].Strength != 95 {
		t.Errorf("expected Beta to keep its stronger observation, got %d", merged[0].Strength)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	if got := Merge(nil); len(got) != 0 {
		t.Errorf("Merge(nil) = %+v, want empty", got)
	}
}
