// Package locations extracts tag observations from submitted items, computes
// their identity hash, and checks that hash against stored records.
package locations
