// Package domain defines the trace and step entities recorded by the
// X-Ray SDK and served by the query API.
package domain
