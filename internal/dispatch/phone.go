// Package dispatch sends rendered content out through the channel
// providers: SMS (bonzo, twilio), voicemail drops (slybroadcast), TTS
// audio (elevenlabs) and SMTP email. Provider failures are carried in the
// result, never raised as errors, so one bad contact can't abort a run.
package dispatch

import (
	"regexp"
	"strings"
)

var e164Pattern = regexp.MustCompile(`^\+\d+$`)

// NormalizeE164BestEffort coerces US-style numbers into E.164 and passes
// anything else through untouched.
func NormalizeE164BestEffort(input string) string {
	val := strings.TrimSpace(input)
	if val == "" || e164Pattern.MatchString(val) {
		return val
	}
	digits := onlyDigits(val)
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	}
	return val
}

// NormalizePhone10 reduces a number to its last ten digits, the form the
// voicemail gateway expects.
func NormalizePhone10(input string) string {
	d := onlyDigits(input)
	if len(d) == 11 && strings.HasPrefix(d, "1") {
		return d[1:]
	}
	if len(d) >= 10 {
		return d[len(d)-10:]
	}
	return d
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
