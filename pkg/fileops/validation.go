package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a path that starts with "~/" to the user's home directory.
//
// Usage example:
//
//	expanded := fileops.ExpandPath("~/.config/taskprompt/templates")
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// ValidateDirectory checks that path exists and is a directory.
func ValidateDirectory(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("directory path cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// ValidateContentSecurity checks for control characters, null bytes and
// script injection patterns in short metadata strings such as template
// descriptions.
func ValidateContentSecurity(content string) error {
	for _, r := range content {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return fmt.Errorf("content contains control characters")
		}
	}

	suspiciousPatterns := []string{
		"<script",
		"javascript:",
		"vbscript:",
		"data:text/html",
		"onload=",
		"onerror=",
	}

	lowerContent := strings.ToLower(content)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lowerContent, pattern) {
			return fmt.Errorf("content contains potentially malicious pattern: %s", pattern)
		}
	}

	return nil
}

// SanitizeIdentifier turns arbitrary text into an identifier made of ASCII
// letters, digits, '_', '-' and '.'. Runs of other characters collapse into a
// single underscore.
//
// Usage example:
//
//	name, err := fileops.SanitizeIdentifier("analyzeTask/index", 64)
//	// name == "analyzeTask_index"
func SanitizeIdentifier(identifier string, maxLength int) (string, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range identifier {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	result := b.String()
	if maxLength > 0 && len(result) > maxLength {
		result = result[:maxLength]
	}
	result = strings.Trim(result, "_-.")

	if result == "" {
		return "", fmt.Errorf("identifier becomes empty after sanitization")
	}

	return result, nil
}
