package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rkm/rcm-geocal/internal/calib"
	"github.com/rkm/rcm-geocal/internal/catalog"
	"github.com/rkm/rcm-geocal/internal/config"
	"github.com/rkm/rcm-geocal/internal/product"
	"github.com/rkm/rcm-geocal/internal/scan"
)

// Handlers holds dependencies for the HTTP handlers.
type Handlers struct {
	cfg      *config.Config
	registry *product.Registry
	logger   *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(cfg *config.Config, registry *product.Registry, logger *slog.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}
}

// Health returns service health status.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"products": h.registry.Count(),
	})
}

// LandingPage returns the service root document.
// GET /
func (h *Handlers) LandingPage(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.Catalog.BaseURL

	landing := catalog.NewLandingPage(
		"rcm-geocal",
		h.cfg.Catalog.Title,
		h.cfg.Catalog.Description,
	)

	landing.AddLink("self", baseURL+"/", "application/json")
	landing.AddLink("root", baseURL+"/", "application/json")
	landing.AddLink("data", baseURL+"/collection", "application/json")
	landing.AddLink("items", baseURL+"/products", "application/geo+json")
	landing.AddLink("health", baseURL+"/health", "application/json")

	WriteJSON(w, http.StatusOK, landing)
}

// Collection summarizes the loaded products as a STAC collection.
// GET /collection
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	c := catalog.BuildCollection(h.registry, catalog.CollectionInfo{
		Title:       h.cfg.Catalog.Title,
		Description: h.cfg.Catalog.Description,
		License:     h.cfg.Catalog.License,
		BaseURL:     h.cfg.Catalog.BaseURL,
	})
	WriteJSON(w, http.StatusOK, c)
}

// Products lists all loaded products as a STAC item collection.
// GET /products
func (h *Handlers) Products(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.Catalog.BaseURL

	ic, err := catalog.BuildItemCollection(h.registry, baseURL)
	if err != nil {
		h.logger.Error("failed to build item collection", slog.String("error", err.Error()))
		WriteInternalError(w, "failed to build item collection")
		return
	}

	ic.AddLink("self", baseURL+"/products", "application/geo+json")
	ic.AddLink("root", baseURL+"/", "application/json")

	WriteGeoJSON(w, http.StatusOK, ic)
}

// Product returns the descriptive metadata of one product.
// GET /products/{productId}
func (h *Handlers) Product(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}

	meta := p.Meta()
	resp := map[string]any{
		"id":                        p.ID(),
		"satellite":                 meta.Satellite,
		"beam_mode":                 meta.BeamMode,
		"beam_mode_mnemonic":        meta.BeamModeMnemonic,
		"sensor_type":               string(p.Sensor()),
		"product_type":              string(meta.ProductType),
		"sample_type":               meta.SampleType,
		"polarizations":             meta.Polarizations,
		"dual_pol_transmit":         meta.DualPolTx,
		"compact_pol":               meta.CompactPol,
		"pass_direction":            meta.PassDirection,
		"look_direction":            meta.LookDirection,
		"width":                     meta.Width,
		"height":                    meta.Height,
		"pixel_spacing_m":           meta.PixelSpacing,
		"line_spacing_m":            meta.LineSpacing,
		"incidence_angle_near":      meta.IncAngleNear,
		"incidence_angle_far":       meta.IncAngleFar,
		"radar_center_frequency_hz": meta.RadarCenterFreq,
		"wavelength_m":              meta.Wavelength(),
		"range_looks":               meta.RangeLooks,
		"azimuth_looks":             meta.AzimuthLooks,
		"beams":                     meta.Beams,
		"geocoded":                  meta.Geocoded(),
	}
	if params, ok := product.BeamModeParamsFor(meta.BeamMode); ok {
		resp["nominal_resolution"] = params.Resolution
		resp["nominal_looks"] = params.Looks
	}
	if !meta.Geocoded() {
		resp["platform_speed_m_s"] = p.PlatformSpeed()
		resp["zero_doppler_first"] = product.FormatTime(meta.ZeroDopplerFirst)
		resp["zero_doppler_last"] = product.FormatTime(meta.ZeroDopplerLast)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// Item returns the STAC item for one product.
// GET /products/{productId}/stac-item
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}

	item, err := catalog.BuildItem(p, h.cfg.Catalog.BaseURL)
	if err != nil {
		h.logger.Error("failed to build item",
			slog.String("product", p.ID()),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "failed to build item")
		return
	}

	WriteGeoJSON(w, http.StatusOK, item)
}

// Time returns the zero-Doppler azimuth time of an image line.
// GET /products/{productId}/time?line=N
func (h *Handlers) Time(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	line, ok := h.intParam(w, r, "line")
	if !ok {
		return
	}

	t, err := p.TimeAt(line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"line":         line,
		"azimuth_time": product.FormatTime(t),
	})
}

// Position returns the interpolated platform position.
// GET /products/{productId}/position?line=N or ?time=RFC3339
func (h *Handlers) Position(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	t, ok := h.timeParam(w, r, p)
	if !ok {
		return
	}

	pos, err := p.Position(t)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"time":       product.FormatTime(t),
		"position_m": []float64{pos.X, pos.Y, pos.Z},
	})
}

// Velocity returns the interpolated platform velocity.
// GET /products/{productId}/velocity?line=N or ?time=RFC3339
func (h *Handlers) Velocity(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	t, ok := h.timeParam(w, r, p)
	if !ok {
		return
	}

	vel, err := p.Velocity(t)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"time":           product.FormatTime(t),
		"velocity_m_s":   []float64{vel.X, vel.Y, vel.Z},
		"platform_speed": p.PlatformSpeed(),
	})
}

// GroundRange returns the ground range of an image column.
// GET /products/{productId}/ground-range?pixel=N
func (h *Handlers) GroundRange(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, ok := h.intParam(w, r, "pixel")
	if !ok {
		return
	}

	gr, err := p.GroundRange(pixel)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pixel":          pixel,
		"ground_range_m": gr,
	})
}

// SlantRange returns the slant range at a pixel/line location.
// GET /products/{productId}/slant-range?pixel=N&line=M
func (h *Handlers) SlantRange(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, line, ok := h.pixelLineParams(w, r)
	if !ok {
		return
	}

	sr, err := p.SlantRange(pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	srt, err := p.SlantRangeTime(pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pixel":              pixel,
		"line":               line,
		"slant_range_m":      sr,
		"slant_range_time_s": srt,
	})
}

// DopplerCentroid returns the Doppler centroid at a pixel/line location.
// GET /products/{productId}/doppler-centroid?pixel=N&line=M
func (h *Handlers) DopplerCentroid(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, line, ok := h.pixelLineParams(w, r)
	if !ok {
		return
	}

	dc, err := p.DopplerCentroid(pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pixel":               pixel,
		"line":                line,
		"doppler_centroid_hz": dc,
	})
}

// DopplerRate returns the Doppler rate polynomial governing a pixel/line
// location.
// GET /products/{productId}/doppler-rate?pixel=N&line=M
func (h *Handlers) DopplerRate(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, line, ok := h.pixelLineParams(w, r)
	if !ok {
		return
	}

	est, err := p.DopplerRate(pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pixel":            pixel,
		"line":             line,
		"burst":            est.Burst,
		"reference_time_s": est.ReferenceTime,
		"coefficients":     est.Coefficients,
	})
}

// Beam returns the beam owning an image column.
// GET /products/{productId}/beam?pixel=N
func (h *Handlers) Beam(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, ok := h.intParam(w, r, "pixel")
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pixel": pixel,
		"beam":  p.Beam(pixel),
	})
}

// Burst returns the burst number containing a pixel/line location.
// GET /products/{productId}/burst?pixel=N&line=M
func (h *Handlers) Burst(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, line, ok := h.pixelLineParams(w, r)
	if !ok {
		return
	}

	burst, err := p.Burst(pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pixel": pixel,
		"line":  line,
		"burst": burst,
	})
}

// PRF returns the pulse repetition frequency at an image column.
// GET /products/{productId}/prf?pixel=N&per_channel=true
func (h *Handlers) PRF(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, ok := h.intParam(w, r, "pixel")
	if !ok {
		return
	}

	perChannel := false
	if v := r.URL.Query().Get("per_channel"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteInvalidParameter(w, "per_channel must be a boolean")
			return
		}
		perChannel = b
	}

	prf, err := p.PRF(pixel, perChannel)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pixel":       pixel,
		"per_channel": perChannel,
		"prf_hz":      prf,
	})
}

// Noise returns the per-band noise floor at a pixel/line location.
// GET /products/{productId}/noise?kind=sigma&pixel=N&line=M
func (h *Handlers) Noise(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	pixel, line, ok := h.pixelLineParams(w, r)
	if !ok {
		return
	}

	noise, err := p.NoiseLevel(kind, pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"kind":     string(kind),
		"pixel":    pixel,
		"line":     line,
		"noise_db": noise,
	})
}

// LUT returns the resolved calibration gains at an image column, or the
// per-band offsets when no pixel is given.
// GET /products/{productId}/lut?kind=sigma[&pixel=N]
func (h *Handlers) LUT(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}

	lut, err := p.LUT(kind)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	resp := map[string]any{
		"kind":  string(kind),
		"bands": lut.Bands(),
	}

	offsets := make([]float64, lut.Bands())
	for b := range offsets {
		offsets[b] = lut.Offset(b)
	}
	resp["offsets"] = offsets

	if v := r.URL.Query().Get("pixel"); v != "" {
		pixel, err := strconv.Atoi(v)
		if err != nil {
			WriteInvalidParameter(w, "pixel must be an integer")
			return
		}
		gains := make([]float64, lut.Bands())
		for b := range gains {
			gains[b] = lut.GainAt(b, pixel)
		}
		resp["pixel"] = pixel
		resp["gains"] = gains
	}

	WriteJSON(w, http.StatusOK, resp)
}

// IncidenceAngle returns the incidence angle at an image column.
// GET /products/{productId}/incidence-angle?pixel=N
func (h *Handlers) IncidenceAngle(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, ok := h.intParam(w, r, "pixel")
	if !ok {
		return
	}

	angle, err := p.IncidenceAngle(pixel)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pixel":               pixel,
		"incidence_angle_deg": angle,
	})
}

// Geometry returns the combined geometry report for a pixel/line location.
// GET /products/{productId}/geometry?pixel=N&line=M
func (h *Handlers) Geometry(w http.ResponseWriter, r *http.Request) {
	p := h.product(w, r)
	if p == nil {
		return
	}
	pixel, line, ok := h.pixelLineParams(w, r)
	if !ok {
		return
	}

	t, err := p.TimeAt(line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	gr, err := p.GroundRange(pixel)
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	sr, err := p.SlantRange(pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	srt, err := p.SlantRangeTime(pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}
	dc, err := p.DopplerCentroid(pixel, line)
	if err != nil {
		h.writeProductError(w, err)
		return
	}

	resp := map[string]any{
		"pixel":               pixel,
		"line":                line,
		"azimuth_time":        product.FormatTime(t),
		"ground_range_m":      gr,
		"slant_range_m":       sr,
		"slant_range_time_s":  srt,
		"doppler_centroid_hz": dc,
		"beam":                p.Beam(pixel),
	}

	if prf, err := p.PRF(pixel, false); err == nil {
		resp["prf_hz"] = prf
	}
	if burst, err := p.Burst(pixel, line); err == nil {
		resp["burst"] = burst
	}
	if angle, err := p.IncidenceAngle(pixel); err == nil {
		resp["incidence_angle_deg"] = angle
	}
	if pos, err := p.Position(t); err == nil {
		resp["position_m"] = []float64{pos.X, pos.Y, pos.Z}
	}
	if vel, err := p.Velocity(t); err == nil {
		resp["velocity_m_s"] = []float64{vel.X, vel.Y, vel.Z}
	}

	WriteJSON(w, http.StatusOK, resp)
}

// product resolves the {productId} URL parameter. Writes a 404 and returns
// nil when the product is not loaded.
func (h *Handlers) product(w http.ResponseWriter, r *http.Request) *product.Product {
	id := chi.URLParam(r, "productId")
	p := h.registry.Get(id)
	if p == nil {
		WriteNotFound(w, fmt.Sprintf("product %q not found", id))
		return nil
	}
	return p
}

// intParam parses a required integer query parameter.
func (h *Handlers) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		WriteInvalidParameter(w, fmt.Sprintf("missing required parameter %q", name))
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return n, true
}

// pixelLineParams parses the required pixel and line query parameters.
func (h *Handlers) pixelLineParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	pixel, ok := h.intParam(w, r, "pixel")
	if !ok {
		return 0, 0, false
	}
	line, ok := h.intParam(w, r, "line")
	if !ok {
		return 0, 0, false
	}
	return pixel, line, true
}

// timeParam resolves the query time for orbit lookups: an explicit
// RFC 3339 time, or the azimuth time of a given line.
func (h *Handlers) timeParam(w http.ResponseWriter, r *http.Request, p *product.Product) (time.Time, bool) {
	q := r.URL.Query()

	if v := q.Get("time"); v != "" {
		t, err := product.ParseTime(v)
		if err != nil {
			WriteInvalidParameter(w, "time must be an RFC 3339 timestamp")
			return time.Time{}, false
		}
		return t, true
	}

	if v := q.Get("line"); v != "" {
		line, err := strconv.Atoi(v)
		if err != nil {
			WriteInvalidParameter(w, "line must be an integer")
			return time.Time{}, false
		}
		t, err := p.TimeAt(line)
		if err != nil {
			h.writeProductError(w, err)
			return time.Time{}, false
		}
		return t, true
	}

	WriteInvalidParameter(w, "either time or line is required")
	return time.Time{}, false
}

// kindParam parses the required calibration kind query parameter.
func (h *Handlers) kindParam(w http.ResponseWriter, r *http.Request) (calib.Kind, bool) {
	v := r.URL.Query().Get("kind")
	if v == "" {
		WriteInvalidParameter(w, "missing required parameter \"kind\"")
		return "", false
	}
	kind, err := calib.ParseKind(v)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return "", false
	}
	return kind, true
}

// writeProductError maps engine errors to HTTP responses.
func (h *Handlers) writeProductError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, product.ErrNotZeroDoppler):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, product.ErrNoCalibration):
		WriteNotFound(w, err.Error())
	case errors.Is(err, scan.ErrNoBurstCoverage):
		WriteNotFound(w, err.Error())
	default:
		h.logger.Error("product query failed", slog.String("error", err.Error()))
		WriteInternalError(w, err.Error())
	}
}
