// internal/app/system/limits/limits.go
package limits

// Request body size limits for form posts.
const (
	// MaxGroupFormSize caps a group editor submission, people picker JSON
	// and body HTML included.
	MaxGroupFormSize = 1 << 20 // 1 MB

	// MaxLoginFormSize caps the login form.
	MaxLoginFormSize = 8 << 10 // 8 KB
)
