// Package llm provides the remote text-generation client used for cashflow analysis.
// It speaks the Gemini generateContent REST API, enforces a request timeout and
// classifies transport and HTTP failures into typed errors. It never retries; callers
// that want retries use common.WithRetry. Requests can optionally be paced client-side.
package llm
