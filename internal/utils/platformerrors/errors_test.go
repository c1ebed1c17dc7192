package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{ErrorTypeUnauthorized, http.StatusUnauthorized},
		{ErrorTypeStorage, http.StatusBadGateway},
		{ErrorTypeDatabaseError, http.StatusBadGateway},
		{ErrorTypeInternal, http.StatusInternalServerError},
		{ErrorType("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			if got := ErrorTypeToHTTPStatus(tt.errorType); got != tt.want {
				t.Errorf("ErrorTypeToHTTPStatus(%s) = %d, want %d", tt.errorType, got, tt.want)
			}
		})
	}
}

func TestNewError_WrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewError(context.Background(), LayerDomain, ErrorTypeStorage, "upload object", cause)

	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if !IsType(err, ErrorTypeStorage) {
		t.Error("IsType(storage) = false")
	}
	if IsType(err, ErrorTypeNotFound) {
		t.Error("IsType(not found) = true for a storage error")
	}
	if IsType(cause, ErrorTypeStorage) {
		t.Error("IsType matched a plain error")
	}
}

func TestNewError_WrappedFurther(t *testing.T) {
	inner := NewError(context.Background(), LayerRepository, ErrorTypeNotFound, "video record not found", nil)
	outer := fmt.Errorf("lookup: %w", inner)

	if !IsType(outer, ErrorTypeNotFound) {
		t.Error("IsType does not see through fmt.Errorf wrapping")
	}
}

func TestNewErrorWithDetail(t *testing.T) {
	err := NewErrorWithDetail(context.Background(), LayerInfrastructure, ErrorTypeProcessing,
		"ffmpeg exited with code 1", errors.New("exit status 1"), "moov atom not found")

	if err.Detail != "moov atom not found" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if got := err.Error(); got == "" {
		t.Error("empty Error() string")
	}
}
