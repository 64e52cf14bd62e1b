package resolver

import "fmt"

// FetchKind discriminates the failure paths of a crop-statistics fetch.
type FetchKind string

const (
	KindTransport FetchKind = "transport" // network error, no response
	KindStatus    FetchKind = "status"    // non-success HTTP status
	KindShape     FetchKind = "shape"     // malformed or incomplete response body
)

// FetchError is any failure of a fetch attempt. All kinds drive the same
// failure path in the resolver; the kind only selects the backoff policy.
type FetchError struct {
	Kind   FetchKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch failed (%s, status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
