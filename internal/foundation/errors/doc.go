// Package errors provides the classified error primitives used across sitepipe.
//
// Steps, the pipeline runner and the CLI all report failures as ClassifiedError
// values so the command line can pick an exit code and a message without
// string matching.
//
// Key features:
//   - ErrorCategory: broad error classification (config, task, tool, git, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether re-running can help (never, user action, ...)
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and user-facing messages
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryTool, "sass failed").
//		WithContext("file", "src/assets/styles/main.scss").
//		Build()
package errors
