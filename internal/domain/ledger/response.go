package ledger

// Outcome classifies the ledger system's reaction to a delivered payload
type Outcome string

const (
	// OutcomeSuccess means the remote system accepted and recorded the payload
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeDuplicate means the remote system already holds the record.
	// Treated as success with a warning: retrying would be harmful.
	OutcomeDuplicate Outcome = "DUPLICATE"
	// OutcomeRejected means the remote system refused the payload
	OutcomeRejected Outcome = "REJECTED"
	// OutcomeTransportError means the payload may never have arrived
	OutcomeTransportError Outcome = "TRANSPORT_ERROR"
)

// Accepted returns true when the remote system holds the record, whether it
// was created by this delivery or an earlier one.
func (o Outcome) Accepted() bool {
	return o == OutcomeSuccess || o == OutcomeDuplicate
}

// Retryable returns true when a later delivery attempt could still succeed
func (o Outcome) Retryable() bool {
	return o == OutcomeRejected || o == OutcomeTransportError
}

// Response is the classified result of one delivery attempt
type Response struct {
	Outcome Outcome
	// Message is the extracted error or warning, empty on clean success
	Message string
	// VoucherRef is the remote voucher identifier, when the response carries one
	VoucherRef string
	// Raw is the unparsed response body, kept for the job's remote response log
	Raw string
}

// ResponseClassifier turns a raw remote response body into an Outcome.
// The text matching against the remote protocol is fragile, so it stays
// behind this interface and is unit-tested in isolation.
type ResponseClassifier interface {
	Classify(body string) Response
}
