package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homepage = `<!DOCTYPE html>
<html><head>
<title> Valley Produce Co </title>
<meta name="description" content="Family-owned shipper of fresh produce across California.">
</head><body>
<h1>We ship reefer loads daily</h1>
<a href="mailto:dispatch@valleyproduce.com?subject=Loads">Email dispatch</a>
<a href="mailto:dispatch@valleyproduce.com">Email again</a>
<a href="tel:+15595550100">Call us</a>
</body></html>`

func TestWebsiteInspector_Inspect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "FreightOps")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(homepage))
	}))
	defer server.Close()

	inspector := NewWebsiteInspector(100, []string{"reefer", "flatbed", "produce"}, server.Client())
	report, err := inspector.Inspect(context.Background(), server.URL)
	require.NoError(t, err)

	assert.True(t, report.Live)
	assert.Equal(t, http.StatusOK, report.StatusCode)
	assert.Equal(t, "Valley Produce Co", report.Title)
	assert.Contains(t, report.Description, "fresh produce")
	assert.Equal(t, []string{"dispatch@valleyproduce.com"}, report.Emails)
	assert.Equal(t, []string{"+15595550100"}, report.Phones)
	assert.Equal(t, []string{"reefer", "produce"}, report.Keywords)
}

func TestWebsiteInspector_NotLive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	report, err := NewWebsiteInspector(100, nil, server.Client()).Inspect(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, report.Live)
	assert.Equal(t, http.StatusNotFound, report.StatusCode)
}

func TestWebsiteInspector_Errors(t *testing.T) {
	inspector := NewWebsiteInspector(100, nil, nil)

	_, err := inspector.Inspect(context.Background(), " ")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = inspector.Inspect(ctx, "http://127.0.0.1:1")
	assert.Error(t, err)
}
