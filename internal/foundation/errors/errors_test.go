package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "sitepipe.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "sitepipe.yaml" {
			t.Errorf("expected context file=sitepipe.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Wrapped chain", func(t *testing.T) {
		inner := ToolError("sass failed").Build()
		outer := WrapError(fmt.Errorf("step sass: %w", inner), CategoryTask, "step failed").Build()

		if !HasCategory(outer, CategoryTool) {
			t.Error("expected tool category somewhere in the chain")
		}
		got, ok := AsClassified(fmt.Errorf("ctx: %w", outer))
		if !ok || got.Category() != CategoryTask {
			t.Errorf("expected outermost task error, got %v", got)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, CategoryGit, "push failed").
		Warning().
		Retryable().
		WithContext("remote", "origin").
		WithContext("attempt", 2).
		Build()

	if err.Severity() != SeverityWarning {
		t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
	}
	if err.RetryStrategy() != RetryBackoff {
		t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected error to wrap original error")
	}
	if !err.CanRetry() {
		t.Error("expected backoff error to be retryable")
	}

	withMore := err.WithContext("branch", "gh-pages")
	if _, ok := err.Context().Get("branch"); ok {
		t.Error("WithContext must not mutate the receiver")
	}
	if branch, _ := withMore.Context().GetString("branch"); branch != "gh-pages" {
		t.Errorf("expected branch context, got %q", branch)
	}
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "b": 1}
	b := ErrorContext{"b": 2}
	merged := a.Merge(b)
	if merged["a"] != 1 || merged["b"] != 2 {
		t.Errorf("unexpected merge result: %v", merged)
	}
	var nilCtx ErrorContext
	if got := nilCtx.Merge(b); got["b"] != 2 {
		t.Errorf("nil merge should return other, got %v", got)
	}
}

func TestGetCategoryDefaultsToInternal(t *testing.T) {
	if got := GetCategory(errors.New("plain")); got != CategoryInternal {
		t.Errorf("GetCategory(plain) = %s, want %s", got, CategoryInternal)
	}
}

func TestHasCategorySearchesJoinedErrors(t *testing.T) {
	notFound := NewError(CategoryNotFound, "unknown step").Build()
	task := TaskError("step failed").WithCause(ValidationError("bad layout").Build()).Build()

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		want     bool
	}{
		{"joined", errors.Join(notFound), CategoryNotFound, true},
		{"joined second branch", errors.Join(errors.New("usage"), fmt.Errorf("run: %w", notFound)), CategoryNotFound, true},
		{"cause below task", fmt.Errorf("run: %w", task), CategoryValidation, true},
		{"absent", errors.Join(errors.New("a"), task), CategoryGit, false},
		{"nil", nil, CategoryNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCategory(tt.err, tt.category); got != tt.want {
				t.Errorf("HasCategory = %v, want %v", got, tt.want)
			}
		})
	}
}
