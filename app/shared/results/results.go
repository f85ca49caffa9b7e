// Package results carries the outcome of a service operation between the
// application layer and the message handlers that publish it.
package results

// OperationResult holds at most one of a success or a business failure
// payload. A transport or infrastructure error is returned separately as an
// error; Failure is reserved for outcomes the caller should publish rather
// than retry.
type OperationResult struct {
	Success any
	Failure any
}

// HandlerResult is one outgoing message: a destination topic, a payload to
// marshal, and optional metadata to set on the message.
type HandlerResult struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// MapToHandlerResults routes Success to successTopic and Failure to
// failureTopic. An empty result maps to no messages.
func (r OperationResult) MapToHandlerResults(successTopic, failureTopic string) []HandlerResult {
	var out []HandlerResult
	if r.Success != nil {
		out = append(out, HandlerResult{Topic: successTopic, Payload: r.Success})
	}
	if r.Failure != nil {
		out = append(out, HandlerResult{Topic: failureTopic, Payload: r.Failure})
	}
	return out
}

// SuccessResult wraps payload as a success outcome.
func SuccessResult(payload any) OperationResult {
	return OperationResult{Success: payload}
}

// FailureResult wraps payload as a business failure outcome.
func FailureResult(payload any) OperationResult {
	return OperationResult{Failure: payload}
}
