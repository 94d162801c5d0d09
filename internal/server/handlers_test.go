package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonerose/dtfgangsheet/internal/config"
	"github.com/ramonerose/dtfgangsheet/pkg/api"
)

// newTestServer runs the memory backend with DPI 72 so pixel sizes map
// straight to points. A 288x144 image is a 4x2 inch design.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Sheet.DPI = 72
	srv, err := New(&cfg, log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { srv.store.Close() })
	return srv
}

func pngBytes(t *testing.T, wPx, hPx int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, wPx, hPx))
	for y := 0; y < hPx; y++ {
		for x := 0; x < wPx; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngDataURL(t *testing.T, wPx, hPx int) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, wPx, hPx))
}

// multipartBody builds a form with one design.png upload plus the given
// fields.
func multipartBody(t *testing.T, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("designs", "design.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doRequest(srv *Server, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestQuote_JSON(t *testing.T) {
	srv := newTestServer(t)

	body := fmt.Sprintf(`{"designs": [{"name": "logo", "source": %q, "quantity": 50}]}`,
		pngDataURL(t, 288, 144))
	rec := doRequest(srv, http.MethodPost, "/api/v1/quotes", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result api.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, 22, result.Sheets[0].WidthInches)
	assert.Equal(t, 33, result.Sheets[0].HeightInches)
	assert.Len(t, result.Sheets[0].Placements, 50)
	assert.Equal(t, 20.0, result.TotalPrice)
}

func TestQuote_ByDimensions(t *testing.T) {
	srv := newTestServer(t)

	// No artwork at all: the storefront quotes a 4x2 inch design by its
	// size before the customer uploads anything.
	body := `{"designs": [{"name": "tee front", "widthInches": 4, "heightInches": 2, "quantity": 50}]}`
	rec := doRequest(srv, http.MethodPost, "/api/v1/quotes", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result api.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, 22, result.Sheets[0].WidthInches)
	assert.Equal(t, 33, result.Sheets[0].HeightInches)
	assert.Equal(t, 20.0, result.TotalPrice)
}

func TestQuote_WidthOverride(t *testing.T) {
	srv := newTestServer(t)

	body := fmt.Sprintf(`{
		"designs": [{"name": "logo", "source": %q, "quantity": 6}],
		"options": {"widthInches": 30}
	}`, pngDataURL(t, 288, 144))
	rec := doRequest(srv, http.MethodPost, "/api/v1/quotes", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result api.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, 30, result.Sheets[0].WidthInches)
	assert.Equal(t, 3, result.Sheets[0].HeightInches)
	assert.Equal(t, 7.5, result.TotalPrice)
}

func TestQuote_MarginOverride(t *testing.T) {
	srv := newTestServer(t)

	// Five 4x2 inch copies need two rows at the default margin but fit
	// one row with no margin, so the sheet shrinks to 2 inches.
	body := fmt.Sprintf(`{
		"designs": [{"name": "logo", "source": %q, "quantity": 5}],
		"options": {"marginInches": 0}
	}`, pngDataURL(t, 288, 144))
	rec := doRequest(srv, http.MethodPost, "/api/v1/quotes", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result api.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Sheets, 1)
	assert.Equal(t, 2, result.Sheets[0].HeightInches)
	assert.Equal(t, 7.5, result.TotalPrice)
}

func TestQuote_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	body := `{"designs": [{"source": "file.png", "quantity": 0}]}`
	rec := doRequest(srv, http.MethodPost, "/api/v1/quotes", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestQuote_EmptyDesign(t *testing.T) {
	srv := newTestServer(t)

	body := `{"designs": [{"name": "ghost", "quantity": 3}]}`
	rec := doRequest(srv, http.MethodPost, "/api/v1/quotes", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "artwork or positive dimensions")
}

func TestPricing(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/v1/pricing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp pricingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tiers, 17)
	assert.Equal(t, api.Tier{LengthInches: 12, Price: 7.50}, resp.Tiers[0])
	assert.Equal(t, api.Tier{LengthInches: 200, Price: 83.00}, resp.Tiers[16])
}

func TestGenerate_Multipart(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, pngBytes(t, 288, 144), map[string]string{"quantities": "6"})
	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="gangsheets.pdf"`)
	assert.NotEmpty(t, rec.Header().Get("X-Job-Id"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestGenerate_ThenDownload(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, pngBytes(t, 288, 144), map[string]string{"quantities": "6"})
	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	id := rec.Header().Get("X-Job-Id")
	require.NotEmpty(t, id)

	dl := doRequest(srv, http.MethodGet, "/api/v1/jobs/"+id, "", nil)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "application/pdf", dl.Header().Get("Content-Type"))
	assert.Contains(t, dl.Header().Get("Content-Disposition"), `filename="gangsheets.pdf"`)
	assert.Equal(t, rec.Body.Bytes(), dl.Body.Bytes())
}

func TestGenerate_ZipFormat(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, pngBytes(t, 288, 144), map[string]string{
		"quantities": "6",
		"format":     "zip",
	})
	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestGenerate_JsonFormat(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, pngBytes(t, 288, 144), map[string]string{
		"quantity": "6",
		"format":   "json",
	})
	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "gangsheets.pdf", resp.Filename)
	assert.Contains(t, resp.DownloadURL, resp.JobID)
	require.NotNil(t, resp.Result)
	require.Len(t, resp.Result.Sheets, 1)
	assert.Len(t, resp.Result.Sheets[0].Placements, 6)

	payload, err := base64.StdEncoding.DecodeString(resp.Payload)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestGenerate_FormOverrides(t *testing.T) {
	srv := newTestServer(t)

	// Six 4x2 inch copies fill one row on a marginless 30 inch roll.
	body, contentType := multipartBody(t, pngBytes(t, 288, 144), map[string]string{
		"quantities": "6",
		"width_in":   "30",
		"margin_in":  "0",
	})
	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	id := rec.Header().Get("X-Job-Id")
	require.NotEmpty(t, id)

	meta := doRequest(srv, http.MethodGet, "/api/v1/jobs/"+id+"/result", "", nil)
	require.Equal(t, http.StatusOK, meta.Code)

	var job jobResponse
	require.NoError(t, json.Unmarshal(meta.Body.Bytes(), &job))
	require.NotNil(t, job.Result)
	require.Len(t, job.Result.Sheets, 1)
	assert.Equal(t, 30, job.Result.Sheets[0].WidthInches)
	assert.Equal(t, 2, job.Result.Sheets[0].HeightInches)
}

func TestGenerate_JobMetadata(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, pngBytes(t, 288, 144), nil)
	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", contentType, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	id := rec.Header().Get("X-Job-Id")
	require.NotEmpty(t, id)

	meta := doRequest(srv, http.MethodGet, "/api/v1/jobs/"+id+"/result", "", nil)
	require.Equal(t, http.StatusOK, meta.Code)

	var job jobResponse
	require.NoError(t, json.Unmarshal(meta.Body.Bytes(), &job))
	assert.Equal(t, id, job.ID)
	assert.Equal(t, "application/pdf", job.ContentType)
	assert.Equal(t, "/api/v1/jobs/"+id, job.DownloadURL)
	require.NotNil(t, job.Result)
	assert.Len(t, job.Result.Sheets, 1)
}

func TestJob_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/v1/jobs/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "JOB_NOT_FOUND", resp.Code)
}

func TestGenerate_QuantityListMismatch(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, pngBytes(t, 288, 144), map[string]string{"quantities": "2,3"})
	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", contentType, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_QUANTITY", resp.Code)
}

func TestGenerate_NoFiles(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("quantities", "5"))
	require.NoError(t, w.Close())

	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", w.FormDataContentType(), &buf)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one design file")
}

func TestGenerate_BadFormat(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, pngBytes(t, 288, 144), map[string]string{"format": "docx"})
	rec := doRequest(srv, http.MethodPost, "/api/v1/gangsheets", contentType, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "format must be pdf, zip or json")
}
