// Package scan deduplicates overlapping wireless scan observations into one
// canonical list, keyed by network name and frequency band.
package scan
