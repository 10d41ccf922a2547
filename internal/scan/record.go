package scan

import "time"

// Band is a coarse frequency band. Identity keys use the band rather than
// the exact channel frequency so the same network seen on two channels of
// one band folds into a single entry.
type Band string

const (
	Band24      Band = "2.4GHz"
	Band5       Band = "5GHz"
	Band6       Band = "6GHz"
	BandUnknown Band = "unknown"
)

// BandOf maps a channel frequency in MHz to its band.
func BandOf(freqMHz uint32) Band {
	switch {
	case freqMHz >= 2400 && freqMHz < 2500:
		return Band24
	case freqMHz >= 4900 && freqMHz < 5925:
		return Band5
	case freqMHz >= 5925 && freqMHz <= 7125:
		return Band6
	default:
		return BandUnknown
	}
}

// Record is one observation of a wireless network. An empty SSID marks a
// hidden network.
type Record struct {
	SSID      string
	Frequency uint32 // MHz
	Strength  uint8  // percent
	LastSeen  time.Time
}

// Band returns the record's frequency band.
func (r Record) Band() Band {
	return BandOf(r.Frequency)
}

// Hidden reports whether the record belongs to a network that withholds its
// name.
func (r Record) Hidden() bool {
	return r.SSID == ""
}
