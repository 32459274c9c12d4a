package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProblemKindCarriesMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	ProblemKind(rec, http.StatusConflict, "insufficient_stock", "requested 4, available 3", map[string]any{
		"product_id": 2,
		"requested":  4,
		"available":  3,
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, "insufficient_stock", problem.Kind)
	require.Equal(t, http.StatusConflict, problem.Status)
	require.EqualValues(t, 4, problem.Meta["requested"])
	require.EqualValues(t, 3, problem.Meta["available"])
}

func TestProblemOmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, http.StatusNotFound, "Not Found", "")

	body := rec.Body.String()
	require.NotContains(t, body, `"kind"`)
	require.NotContains(t, body, `"meta"`)
	require.NotContains(t, body, `"detail"`)
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}

	// Unknown errors never leak details.
	rec := httptest.NewRecorder()
	RespondError(rec, json.Unmarshal(nil, (*struct{})(nil)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "json")
}
