package errors

// ErrorCode identifies a class of failure inside the judging engine.
//
// 10000-10999: generic errors
// 11000-11099: pre-flight errors (reported to the caller before judging starts)
// 11100-11199: judging pipeline errors
type ErrorCode int

const (
	Success ErrorCode = 0

	// Generic (10000-10999)
	InvalidParams ErrorCode = 10001
	InternalError ErrorCode = 10002

	// Pre-flight (11000-11099)
	LanguageNotSupported ErrorCode = 11001
	WorkspaceAllocation  ErrorCode = 11002

	// Judging pipeline (11100-11199)
	JudgeSystemError ErrorCode = 11101
	JudgeCanceled    ErrorCode = 11102
)

var codeMessages = map[ErrorCode]string{
	Success:              "success",
	InvalidParams:        "invalid parameters",
	InternalError:        "internal error",
	LanguageNotSupported: "programming language not supported",
	WorkspaceAllocation:  "workspace allocation failed",
	JudgeSystemError:     "judge system error",
	JudgeCanceled:        "judge task canceled",
}

// Message returns the default human-readable message for the code.
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "unknown error"
}
