// internal/app/system/limits/limits.go
package limits

// Request body and field size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxFormSize is the maximum size of a form submission.
	MaxFormSize = 64 << 10 // 64 KB

	// MaxDescriptionSize is the maximum length of a mission description, in bytes.
	MaxDescriptionSize = 20000

	// MaxTitleLength is the maximum length of a mission or category title, in runes.
	MaxTitleLength = 200

	// MaxBlockMessageLength is the maximum length of the registration block message, in runes.
	MaxBlockMessageLength = 500
)
