package serverutil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	deskerrs "github.com/jdholdren/newsdesk/internal/errors"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

type triggerReq struct {
	Sources []string `json:"sources"`
}

func (t triggerReq) Validate() error {
	if len(t.Sources) > 3 {
		return errors.New("too many sources")
	}
	return nil
}

func TestHandlerFuncE(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "ok", wantStatus: http.StatusOK, wantBody: `{"ok":true}`},
		{name: "structured", err: deskerrs.E(http.StatusBadRequest, "bad input"), wantStatus: http.StatusBadRequest, wantBody: `{"message":"bad input","details":null,"status":400}`},
		{name: "not found", err: fmt.Errorf("fetching: %w", newsdesk.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "opaque", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantBody: `{"message":"internal server error","details":null,"status":500}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := ErrRouter{mux.NewRouter()}
			r.HandleFuncE("/thing", func(w http.ResponseWriter, r *http.Request) error {
				if test.err != nil {
					return test.err
				}
				return WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
			})

			rec := httptest.NewRecorder()
			AccessLogMiddleware(r).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thing", nil))

			assert.Equal(t, test.wantStatus, rec.Code)
			if test.wantBody != "" {
				assert.JSONEq(t, test.wantBody, rec.Body.String())
			}
		})
	}
}

func TestDecodeValid(t *testing.T) {
	got, err := DecodeValid[triggerReq](strings.NewReader(`{"sources":["wire"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"wire"}, got.Sources)

	_, err = DecodeValid[triggerReq](strings.NewReader(`{"sources":["a","b","c","d"]}`))
	var sErr *deskerrs.Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, http.StatusBadRequest, sErr.Status)

	_, err = DecodeValid[triggerReq](strings.NewReader(`{`))
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, http.StatusBadRequest, sErr.Status)
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&offset=-1&page=abc", nil)

	n, err := QueryInt(r, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = QueryInt(r, "missing", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = QueryInt(r, "offset", 0)
	assert.Error(t, err)
	_, err = QueryInt(r, "page", 0)
	assert.Error(t, err)
}
