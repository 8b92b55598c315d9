package session

import (
	"fmt"
	"time"
)

// formatElapsed renders d as unpadded hours:minutes:seconds, e.g. "0:1:5".
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%d:%d", h, m, s)
}

// transcriptLines renders an outcome as the timestamped lines written to the
// transcript file and the console in continuous mode.
func transcriptLines(elapsed time.Duration, o Outcome) []string {
	stamp := formatElapsed(elapsed)
	switch o.Kind {
	case OutcomeRecognized:
		return []string{fmt.Sprintf(lineRecognizedFormat, stamp, o.Text)}
	case OutcomeNoMatch:
		return []string{fmt.Sprintf(lineNoMatchFormat, stamp)}
	case OutcomeCanceled:
		lines := []string{fmt.Sprintf(lineCanceledFormat, stamp, o.Reason)}
		if o.IsError() {
			lines = append(lines, fmt.Sprintf(lineCanceledErrorFormat, stamp, o.ErrorCode, o.ErrorDetails))
		}
		return lines
	default:
		return []string{fmt.Sprintf(lineUnknownFormat, stamp)}
	}
}

// onceLines renders the single-shot console report of an outcome.
func onceLines(o Outcome) []string {
	switch o.Kind {
	case OutcomeRecognized:
		return []string{fmt.Sprintf(onceRecognizedFormat, o.Text)}
	case OutcomeNoMatch:
		return []string{onceNoMatch}
	case OutcomeCanceled:
		lines := []string{fmt.Sprintf(onceCanceledReasonFormat, o.Reason)}
		if o.IsError() {
			lines = append(lines,
				fmt.Sprintf(onceCanceledCodeFormat, o.ErrorCode),
				fmt.Sprintf(onceCanceledDetailsFormat, o.ErrorDetails),
				onceCanceledHint,
			)
		}
		return lines
	default:
		return []string{onceUnknown}
	}
}
