package core

// error_messages.go maps technical errors to coded messages for users.
//
// Codes let a user quote the failure to support. They are grouped by
// category:
//
//	FILE001 - File too large             Patterns: "file too large"
//	FILE003 - Unknown encoding           Patterns: "unknown encoding"
//	FILE004 - No file                    Patterns: "no file provided"
//	FILE006 - Unsupported file type      Patterns: "unsupported file type"
//	FILE007 - File could not be read     Patterns: "read failed"
//	FILE008 - File could not be parsed   Patterns: "parse failed"
//
//	VAL001  - Invalid filter date        Patterns: "invalid date"
//	VAL004  - Product/quantity column missing  Patterns: "missing required column"
//	VAL007  - Invalid request parameter  Patterns: "invalid parameter"
//
//	UPL002  - Load in progress           Patterns: "too many uploads"
//	UPL004  - Request cancelled          Patterns: "context canceled"
//	UPL005  - Request timeout            Patterns: "context deadline exceeded"
//
//	DATA001 - No dataset loaded          Patterns: "no dataset"
//	RATE001 - Rate limited               Patterns: "rate limit"
//	ERR000  - Fallback, see the logs for the technical error
//
// Sentinel errors are matched with errors.Is before any pattern, so wrapping
// a sentinel with extra context never changes its code. Patterns are matched
// case-insensitively with strings.Contains and the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Load failures.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrReadFailed          = errors.New("read failed")
	ErrParseFailed         = errors.New("parse failed")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNoFile              = errors.New("no file provided")
	ErrNoDataset           = errors.New("no dataset loaded")
	ErrMissingColumns      = errors.New("missing required column")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgUnknownEncoding = UserMessage{
		Message: "The selected text encoding is not supported",
		Action:  "Choose UTF-8 or Windows-1251 and try again",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a file to load",
		Code:    "FILE004",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file type",
		Action:  "Load a CSV, TSV, TXT or XLSX file",
		Code:    "FILE006",
	}
	msgReadFailed = UserMessage{
		Message: "The file could not be read",
		Action:  "Check that the file is not open elsewhere and try again",
		Code:    "FILE007",
	}
	msgParseFailed = UserMessage{
		Message: "The file could not be parsed",
		Action:  "Check that the file is a delimited text file or an Excel workbook",
		Code:    "FILE008",
	}
	msgInvalidDate = UserMessage{
		Message: "Invalid date in filter",
		Action:  "Use YYYY-MM-DD",
		Code:    "VAL001",
	}
	msgMissingColumns = UserMessage{
		Message: "Product or quantity column not found",
		Action:  "Check the header row. Totals may be empty or zero",
		Code:    "VAL004",
	}
	msgInvalidParam = UserMessage{
		Message: "Invalid request parameter",
		Action:  "Check the filter values and try again",
		Code:    "VAL007",
	}
	msgLoadInProgress = UserMessage{
		Message: "Another file is still being loaded",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgNoDataset = UserMessage{
		Message: "No file has been loaded yet",
		Action:  "Load a sales file first",
		Code:    "DATA001",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// errorSentinel pairs a sentinel error with its user message.
type errorSentinel struct {
	err error
	msg UserMessage
}

var errorSentinels = []errorSentinel{
	{ErrUnsupportedFileType, msgUnsupported},
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrNoFile, msgNoFile},
	{ErrUnknownEncoding, msgUnknownEncoding},
	{ErrLoadInProgress, msgLoadInProgress},
	{ErrNoDataset, msgNoDataset},
	{ErrMissingColumns, msgMissingColumns},
	{ErrParseFailed, msgParseFailed},
	{ErrReadFailed, msgReadFailed},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that arrive as text, from other packages or
// from the HTTP layer. More specific patterns come first.
var errorPatterns = []errorPattern{
	{"unsupported file type", msgUnsupported},
	{"file too large", msgFileTooLarge},
	{"request body too large", msgFileTooLarge},
	{"no file provided", msgNoFile},
	{"unknown encoding", msgUnknownEncoding},
	{"too many uploads", msgLoadInProgress},
	{"no dataset", msgNoDataset},
	{"missing required column", msgMissingColumns},
	{"parse failed", msgParseFailed},
	{"read failed", msgReadFailed},
	{"invalid date", msgInvalidDate},
	{"invalid parameter", msgInvalidParam},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgTimeout},
	{"rate limit", msgRateLimited},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Sentinels are checked first, then text patterns. Unknown errors map to
// ERR000. A nil error gives the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range errorSentinels {
		if errors.Is(err, s.err) {
			return s.msg
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// MissingColumnsWarning describes unresolved required fields for the load
// result. It returns "" when nothing is missing.
func MissingColumnsWarning(missing []Field) string {
	if len(missing) == 0 {
		return ""
	}
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s: %s (Code: %s). %s",
		msgMissingColumns.Message, strings.Join(names, ", "), msgMissingColumns.Code, msgMissingColumns.Action)
}
