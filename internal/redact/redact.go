// Package redact strips credentials from values before they reach a log
// sink, implementing the design note in spec §9 ("the injected logging sink
// must redact Authorization/x-api-key-style headers and base64 payloads").
// The header name table is grounded on the provider set this module talks
// to: Authorization (OpenAI/Anthropic/Mistral/vLLM bearer tokens),
// x-api-key (Anthropic's alternate header), x-goog-api-key (Google), and
// X-Key (BFL).
package redact

import "strings"

const mask = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"authorization":  true,
	"x-api-key":      true,
	"x-goog-api-key": true,
	"x-key":          true,
	"api-key":        true,
}

// Headers returns a copy of headers with every sensitive value masked,
// leaving the caller's map untouched.
func Headers(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			out[k] = mask
			continue
		}
		out[k] = v
	}
	return out
}

// Value masks a string likely to be base64 image/audio payload data: any
// string over 256 bytes is assumed to be such a payload and replaced with a
// length-preserving summary rather than logged verbatim.
func Value(s string) string {
	if len(s) <= 256 {
		return s
	}
	return mask + " (" + itoa(len(s)) + " bytes)"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
