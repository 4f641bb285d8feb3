package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kalletarpila/swingmaster/internal/core"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"hello": "world"}

	JSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected application/json content type")
	}

	var resp SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data == nil {
		t.Error("expected data in response")
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("expected timestamp in meta")
	}
}

func TestList_CountsAndEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	List[string](w, nil)

	var resp SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	items, ok := resp.Data.([]any)
	if !ok || len(items) != 0 {
		t.Errorf("expected empty array, got %v", resp.Data)
	}
	if resp.Meta.Count == nil || *resp.Meta.Count != 0 {
		t.Errorf("expected count 0, got %v", resp.Meta.Count)
	}

	w = httptest.NewRecorder()
	List(w, []int{1, 2, 3})
	json.Unmarshal(w.Body.Bytes(), &resp)
	if *resp.Meta.Count != 3 {
		t.Errorf("expected count 3, got %d", *resp.Meta.Count)
	}
}

func TestError_WithCoreError(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.ErrConfigInvalid

	Error(w, http.StatusBadRequest, err)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "CONFIG_INVALID" {
		t.Errorf("expected CONFIG_INVALID, got %s", resp.Error.Code)
	}
}

func TestError_WithStandardError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusInternalServerError, errors.New("disk on fire"))

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INTERNAL_ERROR" || resp.Error.Cause != "" {
		t.Errorf("expected opaque internal error, got %+v", resp.Error)
	}
}

func TestFail_MapsStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.WrapError(core.ErrBadRequest, errors.New("limit")), http.StatusBadRequest},
		{core.ErrUnauthorized, http.StatusUnauthorized},
		{core.WrapError(core.ErrTickerNotFound, errors.New("NOKIA.HE")), http.StatusNotFound},
		{core.ErrNoData, http.StatusNotFound},
		{core.ErrStorageFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		Fail(w, tt.err)
		if w.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, w.Code)
		}
	}
}
