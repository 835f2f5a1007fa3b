package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// ExitSuccess 成功
	ExitSuccess = 0
	// ExitNotFound 查無可信的營養資料
	ExitNotFound = 1
	// ExitInvalidArgs 參數錯誤
	ExitInvalidArgs = 2
	// ExitUpstream 外部資料來源或資料庫失敗
	ExitUpstream = 3
	// ExitInternal 其他內部錯誤
	ExitInternal = 4
)

type cliError struct {
	Code        string
	Message     string
	Suggestions []string
	ExitCode    int
}

func (e *cliError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidArgsError(message string, suggestions ...string) error {
	return &cliError{
		Code:        "INVALID_ARGS",
		Message:     message,
		Suggestions: suggestions,
		ExitCode:    ExitInvalidArgs,
	}
}

func notFoundError(message string, suggestions ...string) error {
	return &cliError{
		Code:        "NUTRITION_UNKNOWN",
		Message:     message,
		Suggestions: suggestions,
		ExitCode:    ExitNotFound,
	}
}

func upstreamError(action string, err error) error {
	return &cliError{
		Code:        "UPSTREAM_ERROR",
		Message:     fmt.Sprintf("%s: %v", action, err),
		Suggestions: []string{"Retry in a moment."},
		ExitCode:    ExitUpstream,
	}
}

type jsonErrorPayload struct {
	Error jsonErrorBody `json:"error"`
}

type jsonErrorBody struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	ExitCode    int      `json:"exit_code"`
}

func printCLIErrorJSON(w io.Writer, err *cliError) error {
	if err == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(jsonErrorPayload{
		Error: jsonErrorBody{
			Code:        err.Code,
			Message:     err.Message,
			Suggestions: err.Suggestions,
			ExitCode:    err.ExitCode,
		},
	})
}

func formatCLIErrorText(err *cliError) string {
	if err == nil {
		return ""
	}

	lines := []string{
		fmt.Sprintf("error[%s]: %s", strings.ToLower(err.Code), err.Message),
	}
	if len(err.Suggestions) > 0 {
		lines = append(lines, "suggestions:")
		for _, suggestion := range err.Suggestions {
			lines = append(lines, "  "+suggestion)
		}
	}
	return strings.Join(lines, "\n")
}

// classifyCLIError 將 cobra 與內部錯誤對應到結束碼
func classifyCLIError(err error) *cliError {
	if err == nil {
		return nil
	}

	var typed *cliError
	if errors.As(err, &typed) {
		return typed
	}

	msg := strings.TrimSpace(err.Error())
	switch {
	case strings.Contains(msg, "unknown command"),
		strings.Contains(msg, "unknown flag"),
		strings.Contains(msg, "unknown shorthand flag"),
		strings.Contains(msg, "flag needs an argument"),
		strings.Contains(msg, "invalid argument"),
		strings.Contains(msg, "accepts"),
		strings.Contains(msg, "requires at least"):
		return &cliError{
			Code:        "INVALID_ARGS",
			Message:     msg,
			Suggestions: []string{"nutrition-cli lookup \"olive oil\"", "nutrition-cli barcode 4006381333931"},
			ExitCode:    ExitInvalidArgs,
		}
	default:
		return &cliError{
			Code:     "INTERNAL_ERROR",
			Message:  msg,
			ExitCode: ExitInternal,
		}
	}
}
