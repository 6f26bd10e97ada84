package recommend

import "errors"

var (
	// ErrFeatureUnavailable means the catalog lacks the column a recommender
	// needs.
	ErrFeatureUnavailable = errors.New("feature unavailable")

	// ErrNotFound means the lookup matched nothing.
	ErrNotFound = errors.New("no matching books")
)

// Outcome reports why a recommender returned what it did. Recommenders
// always return a usable, possibly empty, slice; the outcome lets callers
// show a notice.
type Outcome int

const (
	OK Outcome = iota
	NotFound
	FeatureUnavailable
	// DataUnavailable is set by the engine when the catalog failed to load.
	DataUnavailable
	EmptyQuery
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case NotFound:
		return "not_found"
	case FeatureUnavailable:
		return "feature_unavailable"
	case DataUnavailable:
		return "data_unavailable"
	case EmptyQuery:
		return "empty_query"
	default:
		return "unknown"
	}
}

// Notice is the user-facing message for the outcome; empty for OK.
func (o Outcome) Notice() string {
	switch o {
	case NotFound:
		return "No matching books found."
	case FeatureUnavailable:
		return "This recommendation is not available for the current catalog."
	case DataUnavailable:
		return "The book catalog could not be loaded."
	case EmptyQuery:
		return "Enter a search term."
	default:
		return ""
	}
}

// Err maps the outcome to a sentinel error, or nil.
func (o Outcome) Err() error {
	switch o {
	case NotFound:
		return ErrNotFound
	case FeatureUnavailable:
		return ErrFeatureUnavailable
	default:
		return nil
	}
}
