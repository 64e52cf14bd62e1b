package constants

// RequestState is the canonical state for an in-flight crop-statistics fetch.
type RequestState string

// Stable values (these exact strings appear in logs).
const (
	RequestCaptured  RequestState = "CAPTURED"  // payload recorded, no network activity yet
	RequestFetching  RequestState = "FETCHING"  // replay in progress
	RequestSucceeded RequestState = "SUCCEEDED" // parsed and applied
	RequestFailed    RequestState = "FAILED"    // attempt failed, may retry
	RequestDiscarded RequestState = "DISCARDED" // terminal, retries exhausted or cleared
)
