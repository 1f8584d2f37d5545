// Package yoomoney provides a session with the payment service.
//
// The client signs every request and exposes the showcase endpoints through
// the showcase package: it implements showcase.Transport and builds the
// starting request of a showcase. Once a showcase is completed, its answer
// bundle is handed to RequestPayment.
//
// # Authentication
//
// Requests are authenticated using:
//   - Access token: sent as "Authorization: Bearer <token>"
//   - Request signature: an HS256 JWT over method, target and body digest,
//     sent in the X-Request-Signature header when a signing secret is set
//
// # Basic Usage
//
//	client := yoomoney.NewClient(&yoomoney.ClientConfig{
//	    BaseURL:       "https://money.example.com",
//	    ClientID:      "your-client-id",
//	    AccessToken:   "your-access-token",
//	    SigningSecret: "your-signing-secret",
//	})
//
//	nav := client.Navigator()
//	wc, err := nav.Begin(ctx, client.Showcase("5551"))
//	// ... fill and submit pages until wc.State() == showcase.StateCompleted
//
//	result, err := client.RequestPayment(ctx, "5551", wc.Answers())
//
// # Error Handling
//
// Refused payment requests are returned as *APIError:
//
//	result, err := client.RequestPayment(ctx, patternID, answers)
//	var apiErr *yoomoney.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == yoomoney.ErrNotEnoughFunds {
//	    // Handle insufficient funds
//	}
package yoomoney
