// Package showcase drives multi-step payment forms ("showcases") served by
// the payment service.
//
// A showcase is a server-defined sequence of pages. Each page carries a form
// template and the URL the filled form must be posted to. The HTTP status code
// of every exchange decides what happens next:
//
//   - 300 Multiple Choices: another page follows
//   - 400 Bad Request: the submitted page was rejected and is re-presented
//     with validation errors
//   - 200 OK: the showcase is complete and the body is the final parameter
//     bundle for a payment request
//   - 304 Not Modified: the showcase is unchanged since the caller's copy
//
// # Basic Usage
//
//	nav := showcase.NewNavigator(transport)
//
//	wc, err := nav.Begin(ctx, &showcase.Request{URL: "https://example.com/api/showcase/5551"})
//	if err != nil {
//	    return err
//	}
//	for wc.State() == showcase.StateHasNextStep || wc.State() == showcase.StateInvalidParams {
//	    wc.Current().Set("sum", "10.00")
//	    if _, err := nav.Submit(ctx, wc); err != nil {
//	        return err
//	    }
//	}
//	answers := wc.Answers()
//
// # Error Handling
//
// Errors can be matched with errors.Is against ErrNotFound,
// ErrProtocolViolation, ErrDecode and ErrTransport. A failed operation never
// modifies the Context it was given.
package showcase
