package fees

import (
	"strconv"
	"strings"
	"time"

	"github.com/yigit/schooladmin/internal/app/models"
)

// SessionStartMonth opens a two-year academic session such as "2025-26".
var SessionStartMonth = time.April

// SessionWindow returns the [from, to) payment window of a session year in
// UTC. "2025" is the calendar year; "2025-26" and "2025-2026" run from
// SessionStartMonth 2025 to the same month of 2026. ok is false for anything
// that does not start with a four-digit year.
func SessionWindow(sessionYear string) (from, to time.Time, ok bool) {
	s := strings.TrimSpace(sessionYear)
	if len(s) < 4 {
		return time.Time{}, time.Time{}, false
	}
	start, err := strconv.Atoi(s[:4])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	switch rest := s[4:]; {
	case rest == "":
		from = time.Date(start, time.January, 1, 0, 0, 0, 0, time.UTC)
	case strings.HasPrefix(rest, "-"):
		from = time.Date(start, SessionStartMonth, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}, time.Time{}, false
	}
	return from, from.AddDate(1, 0, 0), true
}

// PaymentsInSession keeps the transactions paid inside the session window.
// An unrecognised session year keeps everything.
func PaymentsInSession(txs []models.Transaction, sessionYear string) []models.Transaction {
	from, to, ok := SessionWindow(sessionYear)
	if !ok {
		return txs
	}
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.PaidAt.Before(from) && tx.PaidAt.Before(to) {
			out = append(out, tx)
		}
	}
	return out
}
