package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowview/pkg/buildinfo"
	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/pipeline"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

// LayoutResponse is the body of POST /api/v1/layout.
type LayoutResponse struct {
	Title             string             `json:"title"`
	ExportName        string             `json:"exportName"`
	Layout            *layout.Result     `json:"layout"`
	Highlight         connectivity.State `json:"highlight"`
	DisconnectedSlots []string           `json:"disconnectedSlots"`
	Warnings          []string           `json:"warnings,omitempty"`
	Cached            bool               `json:"cached"`
	DurationMS        int64              `json:"durationMs"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	if format == pipeline.FormatSVG {
		h.Set("Content-Disposition", `inline; filename="`+res.ExportName+`"`)
	}
	h.Set("X-Layout-Cache", hitOrMiss(res.CacheInfo.LayoutHit))
	h.Set("X-Render-Cache", hitOrMiss(res.CacheInfo.RenderHit))
	for _, warning := range res.Warnings {
		h.Add("X-Warning", warning)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Layout(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{
		Title:             res.Title,
		ExportName:        res.ExportName,
		Layout:            res.Layout,
		Highlight:         res.Highlight,
		DisconnectedSlots: res.DisconnectedSlots,
		Warnings:          res.Warnings,
		Cached:            res.CacheInfo.LayoutHit,
		DurationMS:        res.Stats.LayoutTime.Milliseconds(),
	})
}

func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeOptions(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.runner.Connectivity(opts, r.URL.Query().Get("member"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// decodeOptions reads the definitions body and the view query parameters.
func (s *Server) decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()

	ix, err := definitions.ReadJSON(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return pipeline.Options{}, err
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Definitions:   ix,
		RootSelection: q.Get("root"),
		Scale:         q.Get("scale"),
		Highlight:     q.Get("highlight"),
		Title:         q.Get("title"),
		Logger:        s.logger,
	}
	for name, dst := range map[string]*float64{"width": &opts.Width, "height": &opts.Height, "png_scale": &opts.PNGScale} {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter %s", name)
			}
			*dst = f
		}
	}
	for name, dst := range map[string]*bool{"hide_disconnected": &opts.HideDisconnected, "refresh": &opts.Refresh} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter %s", name)
			}
			*dst = b
		}
	}
	return opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, ErrorResponse{
		Error:     string(code),
		Message:   errors.UserMessage(err),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidDefinitions, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidScale, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeSuperseded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func hitOrMiss(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

