package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
	"github.com/seqcat-bio/seqcat-engine/pkg/retry"
)

func fastRetry(attempts int) *retry.Config {
	return &retry.Config{MaxAttempts: attempts, Delay: time.Millisecond}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, attempts int) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, DataPortalMetagenome,
		Credentials{Username: "dcc", Password: "secret"},
		fastRetry(attempts), zap.NewNop())
	return client, srv
}

func writeRecords(t *testing.T, w http.ResponseWriter, records []Record) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(records))
}

func TestExecute_ReturnsRecords(t *testing.T) {
	var gotQuery, gotPortal string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotPortal = r.URL.Query().Get("dataPortal")
		writeRecords(t, w, []Record{{FieldStudyAccession: "PRJNA1", FieldStudyTitle: "a study"}})
	}, 1)

	records, err := client.Execute(context.Background(), validStudyRequest(), AsPublic, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "PRJNA1", records[0][FieldStudyAccession])
	assert.Equal(t, `"study_accession=PRJNA1"`, gotQuery)
	assert.Equal(t, "metagenome", gotPortal)
}

func TestExecute_RetriesServerErrors(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeRecords(t, w, []Record{{FieldStudyAccession: "PRJNA1"}})
	}, 4)

	_, err := client.Execute(context.Background(), validStudyRequest(), AsPublic, false)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecute_ExhaustedRetriesBecomeUnavailable(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 3)

	_, err := client.Execute(context.Background(), validStudyRequest(), AsPublic, false)
	assert.ErrorIs(t, err, apperrors.ErrPortalUnavailable)
	assert.Equal(t, 3, calls)
}

func TestExecute_EmbeddedMessageFailsWithoutRetry(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"message": "invalid search field"}`))
	}, 5)

	_, err := client.Execute(context.Background(), validStudyRequest(), AsPublic, false)
	assert.ErrorIs(t, err, apperrors.ErrPortalProtocol)
	assert.Equal(t, 1, calls, "API-level errors must not be retried")
}

func TestExecute_MalformedJSONFailsWithoutRetry(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}, 5)

	_, err := client.Execute(context.Background(), validStudyRequest(), AsPublic, false)
	assert.ErrorIs(t, err, apperrors.ErrPortalProtocol)
	assert.Equal(t, 1, calls)
}

func TestExecute_EmptyResultHandling(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeRecords(t, w, []Record{})
	}, 1)

	_, err := client.Execute(context.Background(), validStudyRequest(), AsPublic, false)
	assert.ErrorIs(t, err, apperrors.ErrNotAvailable)

	records, err := client.Execute(context.Background(), validStudyRequest(), AsPublic, true)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExecute_AuthModes(t *testing.T) {
	var sawAuth bool
	var user, pass string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, sawAuth = r.BasicAuth()
		writeRecords(t, w, []Record{{FieldStudyAccession: "PRJNA1"}})
	}, 1)

	_, err := client.Execute(context.Background(), validStudyRequest(), AsPublic, false)
	require.NoError(t, err)
	assert.False(t, sawAuth, "public calls must not carry credentials")

	_, err = client.Execute(context.Background(), validStudyRequest(), AsDataHub, false)
	require.NoError(t, err)
	require.True(t, sawAuth)
	assert.Equal(t, "dcc", user)
	assert.Equal(t, "secret", pass)
}

func TestExecute_InvalidRequestNeverReachesNetwork(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	}, 1)

	req := validStudyRequest()
	req.Fields = []string{FieldFastqFTP}
	_, err := client.Execute(context.Background(), req, AsPublic, false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)
	assert.Zero(t, calls)
}

func TestExecutePaged_WalksOffsets(t *testing.T) {
	pages := map[string][]Record{
		"":  {{FieldStudyAccession: "A"}, {FieldStudyAccession: "B"}},
		"2": {{FieldStudyAccession: "C"}, {FieldStudyAccession: "D"}},
		"4": {{FieldStudyAccession: "E"}},
	}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeRecords(t, w, pages[r.URL.Query().Get("offset")])
	}, 1)

	req := validStudyRequest()
	req.Limit = 2

	var got []string
	err := client.ExecutePaged(context.Background(), req, AsPublic, false, func(rec Record) error {
		got = append(got, rec[FieldStudyAccession])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, got)
}

func TestExecutePaged_EmptyFirstPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeRecords(t, w, []Record{})
	}, 1)

	req := validStudyRequest()
	req.Limit = 10

	err := client.ExecutePaged(context.Background(), req, AsPublic, false, func(Record) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrNotAvailable)

	err = client.ExecutePaged(context.Background(), req, AsPublic, true, func(Record) error { return nil })
	assert.NoError(t, err)
}
