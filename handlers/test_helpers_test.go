package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"renovationcost/config"
	"renovationcost/services"
	"renovationcost/testhelpers"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:                "8501",
		PriceListSheet:      services.DefaultPriceListSheet,
		TemplatePath:        testhelpers.NewTemplate(t),
		OutputDir:           t.TempDir(),
		ReportFileName:      services.DefaultReportFileName,
		MaxTotal:            services.DefaultMaxTotal,
		DiagnosticDeduction: services.DefaultDiagnosticDeduction,
		MaxUploadBytes:      1 << 20,
		LogLevel:            "info",
	}
}

func newTestServer(cfg config.Config) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, nil, log)
}

// testClient sends requests straight to the server and keeps the session
// cookie between them.
type testClient struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newTestClient(t *testing.T, srv *Server) *testClient {
	return &testClient{t: t, srv: srv}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *testClient) send(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *testClient) upload(path, filename string, data []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		c.t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		c.t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		c.t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

// loadSamples uploads the sample survey and price list.
func (c *testClient) loadSamples() {
	c.t.Helper()
	if rec := c.upload("/survey", "casa.csv", []byte(testhelpers.SurveyExport)); rec.Code != http.StatusOK {
		c.t.Fatalf("survey upload = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := c.upload("/price-list", "precios.xlsx", testhelpers.NewPriceList(c.t)); rec.Code != http.StatusOK {
		c.t.Fatalf("price list upload = %d: %s", rec.Code, rec.Body.String())
	}
}

func activityPath(room, activity string) string {
	return "/rooms/" + url.PathEscape(room) + "/activities/" + url.PathEscape(activity)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, rec.Body.String())
	}
}
