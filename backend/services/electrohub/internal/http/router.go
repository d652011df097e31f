package httpserver

import (
	"net/http"

	"electrohub/backend/services/electrohub/internal/http/handlers"
	"electrohub/backend/services/electrohub/internal/http/middleware"
	"electrohub/backend/services/electrohub/internal/web"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	Calculator *handlers.CalculatorHandlers
	Circuit    *handlers.CircuitHandlers
	Signal     *handlers.SignalHandlers
	Antenna    *handlers.AntennaHandlers
	Solar      *handlers.SolarHandlers
	Energy     *handlers.EnergyHandlers
	Fault      *handlers.FaultHandlers
	IoT        *handlers.IoTHandlers
	Lab        *handlers.LabHandlers
	Download   *handlers.DownloadHandlers
	Pages      *web.Renderer

	Health  http.HandlerFunc
	Metrics http.Handler
	LiveWS  http.HandlerFunc
}

// NewRouter wires HTTP routes. deviceAuth guards reading ingestion.
func NewRouter(deps RouterDeps, deviceAuth func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()
	get := func(path string, h http.HandlerFunc) { mux.Handle(path, method(http.MethodGet, h)) }
	post := func(path string, h http.HandlerFunc) { mux.Handle(path, method(http.MethodPost, h)) }

	if deps.Health != nil {
		get("/health", deps.Health)
	}
	if deps.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.Metrics))
	}

	if p := deps.Pages; p != nil {
		get("/", p.Index())
		for _, page := range p.Pages() {
			get(page.Path, p.Page(page))
		}
		mux.Handle("/static/", method(http.MethodGet, web.Static()))
		get("/sw.js", web.ServiceWorker())
	}

	if h := deps.Calculator; h != nil {
		post("/api/calculator/ohms-law", h.OhmsLaw)
		post("/api/calculator/rc-circuit", h.RCCircuit)
		post("/api/calculator/rl-circuit", h.RLCircuit)
		post("/api/calculator/rlc-circuit", h.RLCCircuit)
		post("/api/calculator/filter", h.Filter)
		post("/api/calculator/amplifier", h.Amplifier)
		post("/api/calculator/tolerance", h.Tolerance)
		post("/api/calculator/power-rating", h.PowerRating)
		post("/api/calculator/voltage-divider", h.VoltageDivider)
		post("/api/calculator/unit-convert", h.UnitConvert)
		post("/api/calculator/series", h.Series)
		post("/api/calculator/parallel", h.Parallel)
		post("/api/calculator/what-if", h.WhatIf)
		get("/api/calculator/history", h.History)
		get("/api/constants", h.Constants)
	}

	if h := deps.Circuit; h != nil {
		post("/api/circuit/dc-analysis", h.DC)
		post("/api/circuit/ac-analysis", h.AC)
		post("/api/circuit/frequency-response", h.FrequencyResponse)
		post("/api/circuit/efficiency", h.Efficiency)
		post("/api/circuit/compare", h.Compare)
	}

	if h := deps.Signal; h != nil {
		post("/api/signal/generate", h.Generate)
		post("/api/signal/fft", h.FFT)
		post("/api/signal/noise", h.Noise)
		post("/api/signal/bandwidth", h.Bandwidth)
		post("/api/signal/filter", h.Filter)
		post("/api/signal/statistics", h.Statistics)
	}

	if h := deps.Antenna; h != nil {
		post("/api/antenna/frequency-wavelength", h.FrequencyWavelength)
		post("/api/antenna/dipole", h.Dipole)
		post("/api/antenna/yagi", h.Yagi)
		post("/api/antenna/impedance", h.Impedance)
		post("/api/antenna/link-budget", h.LinkBudget)
	}

	if h := deps.Solar; h != nil {
		post("/api/solar/panel-sizing", h.PanelSizing)
		post("/api/solar/battery-sizing", h.BatterySizing)
		post("/api/solar/inverter-sizing", h.InverterSizing)
		post("/api/solar/losses", h.Losses)
		post("/api/solar/roi", h.ROI)
		post("/api/solar/compare", h.Compare)
		post("/api/solar/report", h.Report)
	}

	if h := deps.Energy; h != nil {
		post("/api/energy/analyze", h.Analyze)
		post("/api/energy/efficiency", h.Efficiency)
		post("/api/energy/cost", h.Cost)
		post("/api/energy/peaks", h.Peaks)
		post("/api/energy/compare", h.Compare)
		get("/api/energy/history", h.History)
	}

	if h := deps.Fault; h != nil {
		post("/api/fault/diagnose", h.Diagnose)
		post("/api/fault/repair-steps", h.RepairSteps)
		post("/api/fault/component-tests", h.ComponentTests)
		get("/api/fault/symptoms", h.Symptoms)
	}

	if h := deps.IoT; h != nil {
		ingest := http.Handler(http.HandlerFunc(h.Data))
		if deviceAuth != nil {
			ingest = middleware.Chain(ingest, deviceAuth)
		}
		mux.Handle("/api/iot/data", method(http.MethodPost, ingest))
		post("/api/iot/simulate", h.Simulate)
		post("/api/iot/simulate-batch", h.SimulateBatch)
		post("/api/iot/token", h.Token)
		get("/api/iot/history", h.History)
		get("/api/iot/status", h.Status)
		get("/api/iot/alerts", h.Alerts)
		get("/api/iot/statistics", h.Statistics)
		get("/api/iot/export", h.Export)
		get("/api/iot/devices", h.Devices)
		get("/api/iot/thresholds", h.Thresholds)
	}
	if deps.LiveWS != nil {
		get("/ws/iot", deps.LiveWS)
	}

	if h := deps.Lab; h != nil {
		post("/api/lab/run", h.Run)
		post("/api/lab/report", h.Report)
		get("/api/lab/theory", h.Theory)
		get("/api/lab/experiments", h.Experiments)
		get("/api/lab/reports", h.Reports)
	}

	if h := deps.Download; h != nil {
		get("/download/{file}", h.Download)
		get("/api/download-pdf/{file}", h.Download)
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected && !(expected == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
