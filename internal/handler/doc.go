// Package handler contains the HTTP handlers of the snippet API.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Or more commonly, we use http.HandlerFunc, a function with the right
// signature. Chi's router accepts these directly.
//
// HANDLER RESPONSIBILITIES:
//  1. Decode and validate the request body (decodeJSON + validator tags)
//  2. Call the service layer, which owns the rules (ownership, limits)
//  3. Write the response, or map the error with writeError
//
// Handlers should NOT contain business logic. They are the glue between HTTP
// and the services.
package handler
