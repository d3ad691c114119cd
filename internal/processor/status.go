package processor

import "tagtrack/internal/store"

// DecideStatus maps observed counts to a terminal status.
//
//	processed == totalExpected, no duplicates, no errors  -> full
//	nothing processed, some duplicates, no errors        -> duplicate
//	anything processed                                    -> partial
//	otherwise                                             -> error
func DecideStatus(totalExpected, processed, duplicates, errors int) store.Status {
	switch {
	case processed == totalExpected && duplicates == 0 && errors == 0:
		return store.StatusFull
	case processed == 0 && duplicates > 0 && errors == 0:
		return store.StatusDuplicate
	case processed > 0:
		return store.StatusPartial
	default:
		return store.StatusError
	}
}
