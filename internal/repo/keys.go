package repo

// Key layout of the metadata store. Every record type lives under its
// own prefix so ListKeys can enumerate one family without scanning the
// others.
const (
	submissionPrefix = "sub:"
	confirmPrefix    = "confirm:"
	appealPrefix     = "appeal:"
	accessPrefix     = "access:"
	managePrefix     = "manage:"
	ratePrefix       = "ratelimit:"

	// PendingIndexKey holds the JSON array of submission ids awaiting
	// moderation.
	PendingIndexKey = "index:pending"

	// SubmissionPrefix is exported for full-store scans (paper-token
	// verification walks every submission).
	SubmissionPrefix = submissionPrefix
)

// SubmissionKey returns the store key of a submission record.
func SubmissionKey(id string) string { return submissionPrefix + id }

// ConfirmKey maps a confirmation token to a submission id.
func ConfirmKey(token string) string { return confirmPrefix + token }

// AppealKey maps an appeal token to a submission id.
func AppealKey(token string) string { return appealPrefix + token }

// AccessKey holds an author access grant under its token.
func AccessKey(token string) string { return accessPrefix + token }

// ManageKey holds a short-lived management grant issued by paper-token
// verification.
func ManageKey(token string) string { return managePrefix + token }

// RateConfigKey holds the adjustable configuration of one rate-limiter
// scope ("submission" or "author-access").
func RateConfigKey(scope string) string { return ratePrefix + scope + ":config" }

// RateDayKey holds one scope's daily counter record for a UTC date in
// YYYY-MM-DD form.
func RateDayKey(scope, date string) string { return ratePrefix + scope + ":day:" + date }
