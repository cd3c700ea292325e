package shared

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type idsRequest struct {
	IDs []string `json:"ids" validate:"omitempty,dive,required"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
		wantIDs     []string
	}{
		{
			name:        "valid json",
			requestBody: `{"ids": ["1", "2"]}`,
			wantIDs:     []string{"1", "2"},
		},
		{
			name:        "invalid json",
			requestBody: `{"ids": ["1",]}`,
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
			errContains: "EOF",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(tc.requestBody))

			var target idsRequest
			err := DecodeJSON(req, &target)

			if tc.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.wantIDs, target.IDs)
			}
		})
	}
}

func TestDecodeOptionalJSON(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(""))
		var target idsRequest
		assert.NoError(t, DecodeOptionalJSON(req, &target))
		assert.Nil(t, target.IDs)
	})

	t.Run("no body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		var target idsRequest
		assert.NoError(t, DecodeOptionalJSON(req, &target))
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString("{"))
		var target idsRequest
		assert.Error(t, DecodeOptionalJSON(req, &target))
	})
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var target struct{}
	err := DecodeJSON(req, &target)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF")
}

type selfValidating struct {
	Name string
}

func (v *selfValidating) Validate() error {
	if v.Name == "invalid" {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     interface{}
		wantErr bool
	}{
		{name: "self validating ok", req: &selfValidating{Name: "ok"}},
		{name: "self validating rejects", req: &selfValidating{Name: "invalid"}, wantErr: true},
		{name: "no ids", req: &idsRequest{}},
		{name: "ids", req: &idsRequest{IDs: []string{"a"}}},
		{name: "blank id", req: &idsRequest{IDs: []string{"a", ""}}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(tc.req)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
