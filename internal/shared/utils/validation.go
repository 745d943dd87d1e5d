package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Payload limits
const (
	MaxOptionsSize  = 64 * 1024 // 64KB - serialized action options
	MaxOptionsDepth = 8
	MaxIDLength     = 128
)

// ActionTypePattern allows lower-case words joined by hyphens or colons,
// e.g. close-tab or menu:open
var ActionTypePattern = regexp.MustCompile(`^[a-z0-9]+([:-][a-z0-9]+)*$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateActionType validates the type of an editor action
func ValidateActionType(actionType string) error {
	if err := ValidateString(actionType, "action type", 1, MaxIDLength, true); err != nil {
		return err
	}
	if !ActionTypePattern.MatchString(actionType) {
		return fmt.Errorf("action type %q contains invalid characters", actionType)
	}
	return nil
}

// ValidateOptions bounds the size and nesting depth of action options
func ValidateOptions(options map[string]interface{}) error {
	if len(options) == 0 {
		return nil
	}

	data, err := sonic.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	if len(data) > MaxOptionsSize {
		return fmt.Errorf("options size %d bytes exceeds maximum %d bytes", len(data), MaxOptionsSize)
	}

	return ValidateJSONDepth(options, MaxOptionsDepth)
}

// ValidateJSONDepth checks that decoded JSON nests no deeper than maxDepth
func ValidateJSONDepth(data interface{}, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data interface{}, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}
