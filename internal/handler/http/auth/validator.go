package auth

import (
	"fmt"
	"os"
	"strings"
)

// weakPasswordList holds common passwords rejected outright, along with
// anything that merely prepends them with a short suffix.
var weakPasswordList = []string{
	"admin",
	"password",
	"123456",
	"secret",
	"admin123",
	"password123",
	"123456789",
	"12345678",
	"qwerty",
	"abc123",
	"letmein",
	"welcome",
	"monkey",
	"1234567890",
	"password1",
	"admin1",
	"test",
	"test123",
	"default",
	"root",
}

// minPasswordLength is the floor for admin and assistant passwords.
const minPasswordLength = 12

// ValidateAdminCredentials checks ADMIN_USER and ADMIN_USER_PASSWORD at
// startup, before the server begins accepting requests. The password
// must be at least 12 characters and not match numeric sequences,
// keyboard walks, or the weak-password list. Error messages are safe to
// log; they never include the password itself.
func ValidateAdminCredentials() error {
	user := os.Getenv("ADMIN_USER")
	pass := os.Getenv("ADMIN_USER_PASSWORD")

	if user == "" {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER must not be empty")
	}
	if pass == "" {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be empty")
	}
	if len(pass) < minPasswordLength {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must be at least %d characters (current length: %d)", minPasswordLength, len(pass))
	}

	// Pattern checks run before the blacklist so sequences like
	// "123456789012" get the more specific message.
	if isSimpleNumericPattern(pass) {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be a simple numeric pattern")
	}
	if isKeyboardPattern(pass) {
		return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be a keyboard pattern")
	}

	lowerPass := strings.ToLower(pass)
	for _, weak := range weakPasswordList {
		if lowerPass == weak {
			return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be a weak password")
		}
		// Catches variations like "admin1234567890" that pad a weak
		// base with a short tail.
		if strings.HasPrefix(lowerPass, weak) && len(pass) < minPasswordLength+5 {
			return fmt.Errorf("admin credentials validation failed: ADMIN_USER_PASSWORD must not be based on common weak passwords")
		}
	}

	return nil
}

// isSimpleNumericPattern reports whether the password is all digits in a
// repeated, ascending, or descending sequence ("111111111111",
// "123456789012").
func isSimpleNumericPattern(pass string) bool {
	if len(pass) < minPasswordLength {
		return false
	}

	if isRepeatedChar(pass) {
		return true
	}

	for _, ch := range pass {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	isAscending := true
	isDescending := true
	for i := 1; i < len(pass); i++ {
		diff := int(pass[i]) - int(pass[i-1])
		// Wraps count: 9->0 is still ascending, 0->9 still descending.
		if diff != 1 && diff != -9 {
			isAscending = false
		}
		if diff != -1 && diff != 9 {
			isDescending = false
		}
	}

	return isAscending || isDescending
}

// isRepeatedChar reports whether the password is one character repeated.
func isRepeatedChar(pass string) bool {
	if len(pass) == 0 {
		return false
	}

	first := pass[0]
	for i := 1; i < len(pass); i++ {
		if pass[i] != first {
			return false
		}
	}
	return true
}

var keyboardPatterns = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"qwerty",
	"asdfgh",
	"zxcvb",
}

// isKeyboardPattern reports whether the password contains a keyboard
// walk, forward or reversed.
func isKeyboardPattern(pass string) bool {
	lowerPass := strings.ToLower(pass)

	for _, pattern := range keyboardPatterns {
		if strings.Contains(lowerPass, pattern) || strings.Contains(lowerPass, reverse(pattern)) {
			return true
		}
	}

	return false
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// ValidateAssistantCredentials checks the optional assistant role at
// startup. It never fails the boot: any misconfiguration logs a warning,
// unsets the assistant env vars, and the server runs admin-only. An
// unset ASSISTANT_USER is simply admin-only mode, not a problem.
func ValidateAssistantCredentials(logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}) error {
	assistantUser := os.Getenv("ASSISTANT_USER")
	assistantPass := os.Getenv("ASSISTANT_USER_PASSWORD")
	adminUser := os.Getenv("ADMIN_USER")

	if assistantUser == "" {
		logger.Info("assistant role not configured - running in admin-only mode")
		return nil
	}

	disable := func() {
		_ = os.Unsetenv("ASSISTANT_USER")
		_ = os.Unsetenv("ASSISTANT_USER_PASSWORD")
	}

	if assistantPass == "" {
		logger.Warn("ASSISTANT_USER_PASSWORD is empty - disabling assistant role")
		_ = os.Unsetenv("ASSISTANT_USER")
		return nil
	}

	if assistantUser == adminUser {
		logger.Warn("ASSISTANT_USER cannot be the same as ADMIN_USER - disabling assistant role")
		disable()
		return nil
	}

	if len(assistantPass) < minPasswordLength {
		logger.Warn("ASSISTANT_USER_PASSWORD must be at least 12 characters - disabling assistant role")
		disable()
		return nil
	}

	lowerPass := strings.ToLower(assistantPass)
	for _, weak := range weakPasswordList {
		if lowerPass == weak || strings.HasPrefix(lowerPass, weak) {
			logger.Warn("ASSISTANT_USER_PASSWORD is a weak password - disabling assistant role",
				"hint", "avoid common passwords")
			disable()
			return nil
		}
	}

	if _, err := workspaceFromEnv("ASSISTANT_WORKSPACE_ID"); err != nil {
		logger.Warn("ASSISTANT_WORKSPACE_ID is missing or malformed - disabling assistant role")
		disable()
		return nil
	}

	logger.Info("assistant role configured successfully", "user", assistantUser)
	return nil
}
