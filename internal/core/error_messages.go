// Package core runs the CSV cleaning pipeline for one dataset.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Error codes are grouped by category:
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Unknown dataset: No schema is configured for this file
//	         Action: Add the dataset to a schema file or rename the input
//	         Patterns: "no schema for dataset"
//
//	CFG002 - Invalid schema: The schema file could not be read
//	         Action: Check the schema file against the documented layout
//	         Patterns: "invalid schema"
//
// # Rule Errors (RULE001-RULE099)
//
//	RULE001 - Unknown rule: A rule name is not recognised
//	          Action: Run "csvclean rules" for the supported names
//	          Patterns: "unknown rule"
//
// # Lookup Errors (LOOKUP001-LOOKUP099)
//
//	LOOKUP001 - Lookup unavailable: The answer score table could not be loaded
//	            Action: Check the lookup file path and its JSON content
//	            Patterns: "quantitative lookup unavailable"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Clean the file from the command line instead
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Action: Ensure every row has no more fields than the header
//	          Patterns: "invalid csv"
//
//	FILE003 - Empty file: The file has no header row
//	          Action: Provide a CSV file with a header
//	          Patterns: "empty file"
//
//	FILE004 - File not found: The input file does not exist
//	          Action: Check the data directory and file name
//	          Patterns: "no such file or directory", "file does not exist"
//
//	FILE005 - Output locked: Another run is writing to the output directory
//	          Action: Wait for the other run to finish
//	          Patterns: "output directory is locked"
//
// # Request Errors (UPL001-UPL099)
//
//	UPL001 - System busy: Too many cleaning runs in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent cleans"
//
//	UPL002 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	UPL003 - Request timeout: Request timed out
//	         Action: Try a smaller file or use the command line
//	         Patterns: "context deadline exceeded"
//
//	UPL004 - Invalid request: A request parameter is malformed
//	         Action: Check the query parameters and form fields
//	         Patterns: "invalid request"
//
// # History Errors (HIST001-HIST099)
//
//	HIST001 - Run not found: No recorded run has this ID
//	          Action: Check the run ID or list recent runs
//	          Patterns: "run not found"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or check the logs
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Order matters: specific before general.
var errorPatterns = []errorPattern{
	// Configuration
	{
		pattern: "no schema for dataset",
		msg: UserMessage{
			Message: "No schema is configured for this file",
			Action:  "Add the dataset to a schema file or rename the input",
			Code:    "CFG001",
		},
	},
	{
		pattern: "invalid schema",
		msg: UserMessage{
			Message: "The schema file could not be read",
			Action:  "Check the schema file against the documented layout",
			Code:    "CFG002",
		},
	},
	{
		pattern: "unknown rule",
		msg: UserMessage{
			Message: "A rule name is not recognised",
			Action:  `Run "csvclean rules" for the supported names`,
			Code:    "RULE001",
		},
	},
	{
		pattern: "quantitative lookup unavailable",
		msg: UserMessage{
			Message: "The answer score table could not be loaded",
			Action:  "Check the lookup file path and its JSON content",
			Code:    "LOOKUP001",
		},
	},

	// Files
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Clean the file from the command line instead",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Clean the file from the command line instead",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure every row has no more fields than the header",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no header row",
			Action:  "Provide a CSV file with a header",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no such file or directory",
		msg: UserMessage{
			Message: "The input file does not exist",
			Action:  "Check the data directory and file name",
			Code:    "FILE004",
		},
	},
	{
		pattern: "file does not exist",
		msg: UserMessage{
			Message: "The input file does not exist",
			Action:  "Check the data directory and file name",
			Code:    "FILE004",
		},
	},
	{
		pattern: "output directory is locked",
		msg: UserMessage{
			Message: "Another run is writing to the output directory",
			Action:  "Wait for the other run to finish",
			Code:    "FILE005",
		},
	},

	// Requests
	{
		pattern: "too many concurrent cleans",
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or use the command line",
			Code:    "UPL003",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "A request parameter is malformed",
			Action:  "Check the query parameters and form fields",
			Code:    "UPL004",
		},
	},

	// History
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "No recorded run has this ID",
			Action:  "Check the run ID or list recent runs",
			Code:    "HIST001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the logs",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
