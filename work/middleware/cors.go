package middleware

import "net/http"

// CORSPolicy is the set of Access-Control headers written on every response.
type CORSPolicy struct {
	Origin  string
	Methods string
	Headers string
}

// RelayCORS is the permissive policy the relay serves media with.
var RelayCORS = CORSPolicy{Origin: "*", Methods: "GET, HEAD, OPTIONS", Headers: "*"}

// APICORS is the policy for the JSON API.
var APICORS = CORSPolicy{Origin: "*", Methods: "GET, POST, PUT, DELETE, OPTIONS", Headers: "Content-Type"}

// Apply writes the policy's headers onto h.
func (p CORSPolicy) Apply(h http.Header) {
	h.Set("Access-Control-Allow-Origin", p.Origin)
	h.Set("Access-Control-Allow-Methods", p.Methods)
	h.Set("Access-Control-Allow-Headers", p.Headers)
}

// CORSMiddleware sets the policy's headers on every response and answers
// preflight OPTIONS requests with 204 without calling next.
func CORSMiddleware(p CORSPolicy, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.Apply(w.Header())

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}
