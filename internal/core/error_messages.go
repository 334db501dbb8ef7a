// Package core provides the workbook inspection logic.
//
// # Error Codes Reference
//
// Every error shown to a client carries a code that support staff can look
// up here.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: The uploaded file exceeds the size limit
//	          Action: Split the workbook or remove unused sheets
//	          Patterns: "request body too large", "file too large"
//
//	FILE002 - Unsupported file type: Only Excel workbooks can be inspected
//	          Action: Upload a .xlsx, .xlsm, .xltx or .xltm file
//	          Match: ErrUnsupportedFileType
//
//	FILE003 - Parse failure: The file could not be read as a workbook
//	          Action: Re-save the file in Excel and upload it again
//	          Match: *ParseError
//
//	FILE004 - No file: No file was provided
//	          Action: Select a workbook to upload
//	          Patterns: "no file provided"
//
// # Token Errors (TOK001-TOK099)
//
//	TOK001 - Unknown token: The workbook is no longer available
//	         Action: Upload the workbook again to get a new preview
//	         Match: ErrTokenNotFound
//
//	TOK002 - Token expired: The workbook expired after a period of inactivity
//	         Action: Upload the workbook again to get a new preview
//	         Match: ErrTokenExpired
//
// # Sheet Errors (SHT001-SHT099)
//
//	SHT001 - Sheet not found: The workbook has no sheet with that name
//	         Action: Sheet names are case-sensitive; pick one from the preview
//	         Match: ErrSheetNotFound
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed: The export stopped before completing
//	         Action: Please try again
//	         Match: *ExportError
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid page: offset or limit is out of range
//	         Action: Use offset >= 0 and a limit between 1 and 2000
//	         Match: ErrInvalidPage
//
//	VAL002 - Invalid parameter: a query parameter is missing or malformed
//	         Action: Check the request parameters
//	         Patterns: "invalid parameter", "missing parameter"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	         Action: Please wait a moment and try again
//	         Match: ErrTooManyUploads
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Match: context.Canceled
//
// # Auth Errors (AUTH001-AUTH099)
//
//	AUTH001 - Not authenticated: Missing or invalid credentials
//	          Patterns: "unauthorized", "invalid token", "missing bearer"
//
//	AUTH002 - Forbidden: The account lacks the required role
//	          Patterns: "admin only", "forbidden"
//
//	AUTH003 - Bad credentials: Email or password is incorrect
//	          Patterns: "incorrect email or password"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// # Matching
//
// Sentinel and typed errors are matched first with errors.Is / errors.As.
// Remaining errors are matched case-insensitively by substring; the first
// matching pattern wins.
package core

import (
	"context"
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

var (
	msgUnsupported = UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload a .xlsx, .xlsm, .xltx or .xltm file",
		Code:    "FILE002",
	}
	msgParse = UserMessage{
		Message: "The file could not be read as a workbook",
		Action:  "Re-save the file in Excel and upload it again",
		Code:    "FILE003",
	}
	msgTokenNotFound = UserMessage{
		Message: "Unknown or expired token",
		Action:  "Upload the workbook again to get a new preview",
		Code:    "TOK001",
	}
	msgTokenExpired = UserMessage{
		Message: "Token expired",
		Action:  "Upload the workbook again to get a new preview",
		Code:    "TOK002",
	}
	msgSheetNotFound = UserMessage{
		Message: "Sheet not found",
		Action:  "Sheet names are case-sensitive; pick one from the preview",
		Code:    "SHT001",
	}
	msgExport = UserMessage{
		Message: "Export failed",
		Action:  "Please try again",
		Code:    "EXP001",
	}
	msgInvalidPage = UserMessage{
		Message: "Invalid page window",
		Action:  "Use offset >= 0 and a limit between 1 and 2000",
		Code:    "VAL001",
	}
	msgBusy = UserMessage{
		Message: "Too many uploads in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
)

// errorMatch maps a sentinel or typed error to a user message.
type errorMatch struct {
	match func(error) bool
	msg   UserMessage
}

var errorMatches = []errorMatch{
	{func(err error) bool { return errors.Is(err, ErrUnsupportedFileType) }, msgUnsupported},
	{func(err error) bool { var pe *ParseError; return errors.As(err, &pe) }, msgParse},
	{func(err error) bool { return errors.Is(err, ErrTokenExpired) }, msgTokenExpired},
	{func(err error) bool { return errors.Is(err, ErrTokenNotFound) }, msgTokenNotFound},
	{func(err error) bool { return errors.Is(err, ErrSheetNotFound) }, msgSheetNotFound},
	{func(err error) bool { return errors.Is(err, ErrInvalidPage) }, msgInvalidPage},
	{func(err error) bool { return errors.Is(err, ErrTooManyUploads) }, msgBusy},
	{func(err error) bool { return errors.Is(err, context.Canceled) }, msgCancelled},
	{func(err error) bool { var ee *ExportError; return errors.As(err, &ee) }, msgExport},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors produced outside this package (net/http,
// the auth layer, the rate limiter). Order matters: specific before general.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The uploaded file exceeds the size limit",
			Action:  "Split the workbook or remove unused sheets",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The uploaded file exceeds the size limit",
			Action:  "Split the workbook or remove unused sheets",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Select a workbook to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "incorrect email or password",
		msg: UserMessage{
			Message: "Incorrect email or password",
			Action:  "Check your credentials and try again",
			Code:    "AUTH003",
		},
	},
	{
		pattern: "admin only",
		msg: UserMessage{
			Message: "Admin only",
			Action:  "Ask an administrator for access",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "forbidden",
		msg: UserMessage{
			Message: "Admin only",
			Action:  "Ask an administrator for access",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "missing bearer",
		msg: UserMessage{
			Message: "Not authenticated",
			Action:  "Log in and send the access token as a Bearer credential",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid token",
		msg: UserMessage{
			Message: "Not authenticated",
			Action:  "Log in and send the access token as a Bearer credential",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "unauthorized",
		msg: UserMessage{
			Message: "Not authenticated",
			Action:  "Log in and send the access token as a Bearer credential",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid parameter",
		msg: UserMessage{
			Message: "Invalid request parameter",
			Action:  "Check the request parameters",
			Code:    "VAL002",
		},
	},
	{
		pattern: "missing parameter",
		msg: UserMessage{
			Message: "Missing request parameter",
			Action:  "Check the request parameters",
			Code:    "VAL002",
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

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, m := range errorMatches {
		if m.match(err) {
			return m.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError formats an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
