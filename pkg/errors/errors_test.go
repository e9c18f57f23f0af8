package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedNetwork, "cycle detected at segment %d", 42)

	if err.Code != ErrCodeMalformedNetwork {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeMalformedNetwork)
	}
	if err.Message != "cycle detected at segment 42" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Error("New should not set a cause")
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeStore, cause, "save record %q", "spring")

	if err.Cause != cause {
		t.Error("Wrap should preserve the cause")
	}
	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match errors.Is on the cause")
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeWorkerFailure, "basin outlet 7")

	if !Is(err, ErrCodeWorkerFailure) {
		t.Error("Is should match the error's code")
	}
	if Is(err, ErrCodeNotFound) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeWorkerFailure) {
		t.Error("Is should not match plain errors")
	}
	if Is(nil, ErrCodeWorkerFailure) {
		t.Error("Is should not match nil")
	}
}

func TestGetCodeUnwrapsChain(t *testing.T) {
	inner := New(ErrCodeMalformedNetwork, "dangling reference")
	outer := fmt.Errorf("partition: %w", inner)

	if got := GetCode(outer); got != ErrCodeMalformedNetwork {
		t.Errorf("GetCode through fmt wrap = %s, want %s", got, ErrCodeMalformedNetwork)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidInput, "segments are required")
	if msg := UserMessage(err); msg != "segments are required" {
		t.Errorf("UserMessage = %q", msg)
	}

	plain := stderrors.New("something broke")
	if msg := UserMessage(plain); msg != "something broke" {
		t.Errorf("UserMessage on plain error = %q", msg)
	}
}

func TestErrorString(t *testing.T) {
	err := New(ErrCodeNotFound, "no such basin")
	if err.Error() != "NOT_FOUND: no such basin" {
		t.Errorf("Error() = %q", err.Error())
	}

	wrapped := Wrap(ErrCodeStore, stderrors.New("timeout"), "load record")
	if wrapped.Error() != "STORE_ERROR: load record: timeout" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}
