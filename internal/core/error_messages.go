package core

// # Error Codes Reference
//
// User-facing messages carry a code that can be quoted to support staff.
//
//	VAL001 - Invalid input: a required field is missing or a value is out of range
//	VAL002 - Empty batch: an import contained no candidate products
//	VAL003 - Missing search term: the name query parameter is empty
//	NF001  - Product not found
//	CONF001 - Duplicate name: another product already uses this name (case-insensitive)
//	DB001  - Unique constraint violated at the store level
//	DB002  - Foreign key violated
//	DB003  - Connection refused
//	DB004  - Connection reset
//	DB005  - Timeout
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - No file uploaded
//	RATE001 - Too many requests
//	RATE002 - Import slots busy
//	ERR000 - Unknown error (check application logs)
//
// Typed errors from the taxonomy are matched first; the remaining patterns are
// matched case-insensitively with strings.Contains and the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "empty batch",
		msg: UserMessage{
			Message: "No products to import",
			Action:  "Provide at least one product row",
			Code:    "VAL002",
		},
	},
	{
		pattern: "name parameter is required",
		msg: UserMessage{
			Message: "Name parameter is required",
			Action:  "Enter part of a product name to search for",
			Code:    "VAL003",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "Product name already exists",
			Action:  "Choose a different product name",
			Code:    "DB001",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced product does not exist",
			Action:  "Refresh the product list and try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB005",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB005",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file uploaded",
		msg: UserMessage{
			Message: "No file uploaded",
			Action:  "Please select a CSV file to import",
			Code:    "FILE003",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "Other imports are still running",
			Action:  "Wait for them to finish and try again",
			Code:    "RATE002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var conflict *ConflictError
	var notFound *NotFoundError
	var invalid *ValidationError

	switch {
	case errors.As(err, &conflict):
		return UserMessage{
			Message: fmt.Sprintf("Product name %q already exists.", conflict.Name),
			Action:  "Choose a different product name",
			Code:    "CONF001",
		}
	case errors.As(err, &notFound):
		return UserMessage{
			Message: "Product not found",
			Action:  "Refresh the product list and try again",
			Code:    "NF001",
		}
	case errors.As(err, &invalid):
		if msg, ok := matchPattern(invalid.Error()); ok {
			return msg
		}
		return UserMessage{
			Message: invalid.Error(),
			Action:  "Correct the highlighted field and try again",
			Code:    "VAL001",
		}
	}

	if msg, ok := matchPattern(err.Error()); ok {
		return msg
	}
	return defaultMessage
}

func matchPattern(s string) (UserMessage, bool) {
	s = strings.ToLower(s)
	for _, ep := range errorPatterns {
		if strings.Contains(s, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
