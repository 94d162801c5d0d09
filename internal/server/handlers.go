package server

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ramonerose/dtfgangsheet/internal/geom"
	"github.com/ramonerose/dtfgangsheet/internal/pricing"
	"github.com/ramonerose/dtfgangsheet/pkg/api"
	"github.com/ramonerose/dtfgangsheet/pkg/errors"
)

// handleQuote computes the layout and price without rendering or
// storing anything. Designs may be given by source or by dimensions
// alone, so a storefront can price an order before any artwork exists.
func (s *Server) handleQuote(c *gin.Context) {
	inputs, opts, err := s.parseRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.generator(opts).GenerateLayout(inputs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleGenerate renders the layout and stores the document as a job.
// The format option picks the reply: pdf and zip stream the document
// itself, json wraps it in base64 next to the layout result.
func (s *Server) handleGenerate(c *gin.Context) {
	inputs, opts, err := s.parseRequest(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	gen := s.generator(opts)

	var buf bytes.Buffer
	var result *api.Result
	contentType, filename := "application/pdf", "gangsheets.pdf"
	if opts.Format == "zip" {
		contentType, filename = "application/zip", "gangsheets.zip"
		result, err = gen.GenerateZip(inputs, &buf)
	} else {
		result, err = gen.Generate(inputs, &buf)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	job := &Job{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Payload:     buf.Bytes(),
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Put(c.Request.Context(), job); err != nil {
		s.respondError(c, err)
		return
	}

	s.log.Info("job stored",
		"job", job.ID,
		"designs", len(inputs),
		"sheets", len(result.Sheets),
		"bytes", len(job.Payload))

	if opts.Format == "json" {
		c.JSON(http.StatusCreated, generateResponse{
			JobID:       job.ID,
			DownloadURL: downloadPath(job.ID),
			Filename:    filename,
			ContentType: contentType,
			Payload:     base64.StdEncoding.EncodeToString(job.Payload),
			Result:      result,
		})
		return
	}

	c.Header("X-Job-Id", job.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, job.Payload)
}

// handlePricing reports the tier table quotes are priced against.
func (s *Server) handlePricing(c *gin.Context) {
	tiers := s.baseOptions.Tiers
	if len(tiers) == 0 {
		table := pricing.DefaultTable()
		tiers = make([]api.Tier, len(table))
		for i, t := range table {
			tiers[i] = api.Tier{LengthInches: t.LengthInches, Price: t.Price}
		}
	}
	c.JSON(http.StatusOK, pricingResponse{Tiers: tiers})
}

// handleJobResult returns job metadata and its layout result.
func (s *Server) handleJobResult(c *gin.Context) {
	job, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobResponse{
		ID:          job.ID,
		Filename:    job.Filename,
		ContentType: job.ContentType,
		CreatedAt:   job.CreatedAt,
		DownloadURL: downloadPath(job.ID),
		Result:      job.Result,
	})
}

// handleDownload streams the stored document.
func (s *Server) handleDownload(c *gin.Context) {
	job, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.Filename))
	c.Data(http.StatusOK, job.ContentType, job.Payload)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func downloadPath(id string) string {
	return "/api/v1/jobs/" + id
}

// parseRequest accepts either a JSON body naming design sources or a
// multipart form carrying the design files themselves.
func (s *Server) parseRequest(c *gin.Context) ([]api.DesignInput, layoutOptions, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return s.parseMultipart(c)
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, layoutOptions{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "invalid request body")
	}
	inputs := make([]api.DesignInput, len(req.Designs))
	for i, d := range req.Designs {
		inputs[i] = api.DesignInput{
			Name:         d.Name,
			Source:       d.Source,
			Quantity:     d.Quantity,
			WidthInches:  d.WidthInches,
			HeightInches: d.HeightInches,
		}
	}
	return inputs, req.Options, nil
}

func (s *Server) parseMultipart(c *gin.Context) ([]api.DesignInput, layoutOptions, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, layoutOptions{}, errors.Wrap(errors.ErrCodeInvalidRequest, err, "invalid multipart form")
	}

	files := form.File["designs"]
	if len(files) == 0 {
		return nil, layoutOptions{}, errors.New(errors.ErrCodeInvalidRequest, "at least one design file is required")
	}

	raw := formValue(form, "quantities")
	if raw == "" {
		raw = formValue(form, "quantity")
	}
	quantities, err := parseQuantities(raw, len(files))
	if err != nil {
		return nil, layoutOptions{}, err
	}

	inputs := make([]api.DesignInput, 0, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, layoutOptions{}, errors.Wrap(errors.ErrCodeAssetLoad, err, "failed to read upload %s", fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, layoutOptions{}, errors.Wrap(errors.ErrCodeAssetLoad, err, "failed to read upload %s", fh.Filename)
		}
		inputs = append(inputs, api.DesignInput{Name: fh.Filename, Data: data, Quantity: quantities[i]})
	}

	opts, err := parseFormOptions(form)
	if err != nil {
		return nil, layoutOptions{}, err
	}
	return inputs, opts, nil
}

// parseQuantities expands the quantities form value to one count per
// file: empty means one copy each, a single value applies to every
// file, and a comma list must line up with the uploads.
func parseQuantities(raw string, n int) ([]int, error) {
	qs := make([]int, n)
	for i := range qs {
		qs[i] = 1
	}
	if raw == "" {
		return qs, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 1 && len(parts) != n {
		return nil, errors.New(errors.ErrCodeInvalidQuantity, "got %d quantities for %d designs", len(parts), n)
	}
	for i, p := range parts {
		q, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || q < 1 {
			return nil, errors.New(errors.ErrCodeInvalidQuantity, "invalid quantity %q", strings.TrimSpace(p))
		}
		if len(parts) == 1 {
			for j := range qs {
				qs[j] = q
			}
			break
		}
		qs[i] = q
	}
	return qs, nil
}

func parseFormOptions(form *multipart.Form) (layoutOptions, error) {
	var opts layoutOptions

	if v := formValue(form, "width_in"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil || (w != 22 && w != 30) {
			return opts, errors.New(errors.ErrCodeInvalidConstraint, "sheet width must be 22 or 30 inches, got %q", v)
		}
		opts.WidthInches = w
	}
	if v := formValue(form, "max_length_in"); v != "" {
		l, err := strconv.ParseFloat(v, 64)
		if err != nil || l < api.MinSheetLengthInches || l > api.MaxSheetLengthInches {
			return opts, errors.New(errors.ErrCodeInvalidConstraint,
				"max sheet length must be between %d and %d inches, got %q",
				api.MinSheetLengthInches, api.MaxSheetLengthInches, v)
		}
		opts.MaxLengthInches = l
	}
	if v := formValue(form, "margin_in"); v != "" {
		m, err := strconv.ParseFloat(v, 64)
		if err != nil || m < 0 {
			return opts, errors.New(errors.ErrCodeInvalidConstraint, "margin must be non-negative, got %q", v)
		}
		opts.MarginInches = &m
	}
	if v := formValue(form, "spacing_in"); v != "" {
		sp, err := strconv.ParseFloat(v, 64)
		if err != nil || sp < 0 {
			return opts, errors.New(errors.ErrCodeInvalidConstraint, "spacing must be non-negative, got %q", v)
		}
		opts.SpacingInches = &sp
	}
	if v := formValue(form, "rotate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidRequest, "invalid rotate value %q", v)
		}
		opts.Rotate = &b
	}
	if v := formValue(form, "auto_orient"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidRequest, "invalid auto_orient value %q", v)
		}
		opts.AutoOrient = &b
	}
	if v := formValue(form, "format"); v != "" {
		if v != "pdf" && v != "zip" && v != "json" {
			return opts, errors.New(errors.ErrCodeInvalidRequest, "format must be pdf, zip or json, got %q", v)
		}
		opts.Format = v
	}
	return opts, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// generator layers one request's overrides over the configured sheet
// defaults.
func (s *Server) generator(opts layoutOptions) *api.Generator {
	options := s.baseOptions
	if opts.WidthInches > 0 {
		options.SheetWidth = geom.InchesToPoints(opts.WidthInches)
	}
	if opts.MaxLengthInches > 0 {
		options.MaxSheetHeight = geom.InchesToPoints(opts.MaxLengthInches)
	}
	if opts.MarginInches != nil {
		options.Margin = geom.InchesToPoints(*opts.MarginInches)
	}
	if opts.SpacingInches != nil {
		options.Spacing = geom.InchesToPoints(*opts.SpacingInches)
	}
	if opts.Rotate != nil {
		options.Rotate = *opts.Rotate
	}
	if opts.AutoOrient != nil {
		options.AutoOrient = *opts.AutoOrient
	}
	return api.NewWithOptions(options)
}

// respondError maps engine errors to HTTP statuses. Validation errors
// are the caller's fault, a missing job is 404, and everything else is
// a 500 whose detail stays in the server log.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errors.ErrCodeJobNotFound):
		c.JSON(http.StatusNotFound, errorResponse{
			Error: errors.UserMessage(err),
			Code:  string(errors.GetCode(err)),
		})
	case errors.IsValidation(err):
		c.JSON(http.StatusBadRequest, errorResponse{
			Error: errors.UserMessage(err),
			Code:  string(errors.GetCode(err)),
		})
	default:
		s.log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error: "internal server error",
			Code:  string(errors.ErrCodeInternal),
		})
	}
}
