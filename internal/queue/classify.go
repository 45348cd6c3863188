package queue

import "strings"

// retryable decides whether a failed attempt deserves another try. Network
// errors, timeouts, 5xx and 429 are transient; every other 4xx signals a
// permanent client-side problem (bad URL, bad auth, malformed payload) that
// retrying will not fix.
func retryable(err error, status int) bool {
	if err != nil {
		return true
	}
	if status >= 500 {
		return true
	}
	if status == 429 {
		return true
	}
	if status >= 400 {
		return false
	}
	// Anything else non-2xx (redirect loops, odd 1xx) is treated as transient.
	return true
}

// classifyReason labels a failed attempt for metrics and dead-letter records.
func classifyReason(err error, status int) string {
	if err != nil {
		errLower := strings.ToLower(err.Error())
		if strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline exceeded") {
			return "timeout"
		}
		if strings.Contains(errLower, "connection refused") {
			return "connection_refused"
		}
		if strings.Contains(errLower, "no such host") || strings.Contains(errLower, "dns") {
			return "dns_error"
		}
		return "network"
	}
	if status >= 500 {
		return "http_5xx"
	}
	if status == 429 {
		return "http_429"
	}
	if status >= 400 {
		return "http_4xx"
	}
	return "other"
}
