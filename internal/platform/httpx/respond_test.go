package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblem(t *testing.T) {
	res := httptest.NewRecorder()
	Problem(res, http.StatusForbidden, "Forbidden", "missing permission backup")

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, ProblemContentType, res.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, ProblemDetail{Type: "about:blank", Title: "Forbidden", Status: 403, Detail: "missing permission backup"}, body)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail bool
	}{
		{fmt.Errorf("menu: %w", ErrNotFound), http.StatusNotFound, true},
		{ErrUnauthorized, http.StatusUnauthorized, true},
		{ErrConflict, http.StatusConflict, true},
		{ErrUnavailable, http.StatusServiceUnavailable, true},
		{fmt.Errorf("boom"), http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		res := httptest.NewRecorder()
		RespondError(res, tc.err)
		assert.Equal(t, tc.status, res.Code)
		var body ProblemDetail
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
		assert.Equal(t, tc.detail, body.Detail != "", tc.err.Error())
	}
}
