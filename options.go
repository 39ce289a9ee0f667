package tlbcache

import "log/slog"

type (
	// Option configures a [Cache] constructed by [New].
	Option   func(*settings)
	settings struct {
		log        *slog.Logger
		entryLimit int
	}
)

// WithLogger sets the logger used for lifecycle
// and failure records. By default nothing is logged.
// Lookups never log.
func WithLogger(log *slog.Logger) Option {
	return func(s *settings) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEntryLimit caps the number of translations each table may hold.
// Once a table is full, setting a new page fails with [ErrAllocation]
// until an entry is invalidated or the cache is torn down.
// A limit of 0 (the default) is unbounded.
func WithEntryLimit(limit int) Option {
	return func(s *settings) {
		s.entryLimit = max(limit, 0)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
