package handlers

import (
	"math/rand/v2"
	"net/http"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/signalproc"
)

// DefaultSNRDB is used when a noise request omits snr_db.
const DefaultSNRDB = 20.0

// SignalHandlers serves signal generation and analysis.
type SignalHandlers struct {
	history Recorder
	logger  *zap.Logger
	newRand func() *rand.Rand
}

// NewSignalHandlers returns handler.
func NewSignalHandlers(history Recorder, logger *zap.Logger) *SignalHandlers {
	return &SignalHandlers{
		history: history,
		logger:  logger,
		newRand: func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
	}
}

type samplesRequest struct {
	SignalData []float64 `json:"signal_data"`
	SampleRate float64   `json:"sample_rate"`
}

// Generate handles POST /api/signal/generate.
func (h *SignalHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	req := signalproc.DefaultGenerateInput()
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := signalproc.GenerateSignal(req)
	if err != nil {
		failure(w, h.logger, "signal generation", err)
		return
	}
	h.history.Record(r.Context(), "signal_generator",
		map[string]interface{}{"type": req.SignalType, "frequency": req.Frequency, "amplitude": req.Amplitude},
		map[string]float64{"rms": res.RMS, "peak_to_peak": res.PeakToPeak},
		nil)
	writeResult(w, res)
}

// FFT handles POST /api/signal/fft.
func (h *SignalHandlers) FFT(w http.ResponseWriter, r *http.Request) {
	var req samplesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := signalproc.ComputeFFT(req.SignalData, req.SampleRate)
	if err != nil {
		failure(w, h.logger, "fft", err)
		return
	}
	writeResult(w, res)
}

// Noise handles POST /api/signal/noise.
func (h *SignalHandlers) Noise(w http.ResponseWriter, r *http.Request) {
	req := struct {
		SignalData []float64 `json:"signal_data"`
		NoiseType  string    `json:"noise_type"`
		SNRDB      float64   `json:"snr_db"`
	}{NoiseType: signalproc.NoiseGaussian, SNRDB: DefaultSNRDB}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := signalproc.AddNoise(req.SignalData, req.NoiseType, req.SNRDB, h.newRand())
	if err != nil {
		failure(w, h.logger, "noise", err)
		return
	}
	writeResult(w, res)
}

// Bandwidth handles POST /api/signal/bandwidth.
func (h *SignalHandlers) Bandwidth(w http.ResponseWriter, r *http.Request) {
	req := struct {
		samplesRequest
		ThresholdDB float64 `json:"threshold_db"`
	}{ThresholdDB: -3}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := signalproc.BandwidthAnalysis(req.SignalData, req.SampleRate, req.ThresholdDB)
	if err != nil {
		failure(w, h.logger, "bandwidth analysis", err)
		return
	}
	h.history.Record(r.Context(), "bandwidth_analysis",
		map[string]float64{"sample_rate": req.SampleRate, "threshold_db": req.ThresholdDB}, res, nil)
	writeResult(w, res)
}

// Filter handles POST /api/signal/filter.
func (h *SignalHandlers) Filter(w http.ResponseWriter, r *http.Request) {
	req := signalproc.FilterInput{Order: signalproc.DefaultFilterOrder}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := signalproc.FilterSignal(req)
	if err != nil {
		failure(w, h.logger, "signal filter", err)
		return
	}
	writeResult(w, res)
}

// Statistics handles POST /api/signal/statistics.
func (h *SignalHandlers) Statistics(w http.ResponseWriter, r *http.Request) {
	var req samplesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := signalproc.SignalStatistics(req.SignalData)
	if err != nil {
		failure(w, h.logger, "signal statistics", err)
		return
	}
	writeResult(w, res)
}
