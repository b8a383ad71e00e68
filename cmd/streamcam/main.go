package main

import (
	"context"
	"embed"
	"flag"
	"html/template"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/wachiwi/streamcam/cmd/streamcam/handlers"
	"github.com/wachiwi/streamcam/pkg/alert"
	"github.com/wachiwi/streamcam/pkg/camera"
	"github.com/wachiwi/streamcam/pkg/config"
	"github.com/wachiwi/streamcam/pkg/logger"
	"github.com/wachiwi/streamcam/pkg/sensor"
	"github.com/wachiwi/streamcam/pkg/stream"
	"github.com/wachiwi/streamcam/pkg/telemetry"
	"github.com/wachiwi/streamcam/pkg/wifi"
	"go.opentelemetry.io/otel"
)

//go:embed templates/*
var templateFS embed.FS

// tickInterval drives the connectivity state machine. It is faster than the
// probe interval on purpose; probe pacing lives in the manager.
const tickInterval = 100 * time.Millisecond

func main() {
	logger.Setup()

	configPath := flag.String("config", "/etc/streamcam/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", "path", *configPath, "error", err)
	}

	// --- Connectivity ---
	link, err := wifi.NewNMLink(cfg.Network.Interface)
	if err != nil {
		logger.Fatal("failed to initialize wifi control", "error", err)
	}
	manager := wifi.NewManager(link, cfg.Network)
	manager.BeginJoin()
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for range ticker.C {
			manager.Tick()
		}
	}()

	// --- Camera ---
	// A camera that will not start disables streaming for this boot; every
	// other endpoint stays available.
	cam := camera.New(cfg.Camera)
	cameraAvailable := true
	if err := cam.Start(); err != nil {
		slog.Error("camera unavailable, stream endpoint disabled", "error", err)
		cameraAvailable = false
	}

	// --- Sensors ---
	store := sensor.NewStore()
	if cfg.Sensor.WaterGPIO >= 0 {
		watcher, err := sensor.WatchWater(cfg.Sensor.GPIOChip, cfg.Sensor.WaterGPIO, store)
		if err != nil {
			slog.Warn("onboard water sensor unavailable", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	var alarm *alert.Alarm
	if cfg.Alert.SoundFile != "" {
		alarm, err = alert.New(cfg.Alert.SoundFile)
		if err != nil {
			slog.Warn("audible alarm disabled", "error", err)
			alarm = nil
		}
	}

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	router.SetTrustedProxies(nil)
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	pipeline := stream.NewPipeline(cam, camera.NewJPEGEncoder())

	streamHandler := &handlers.StreamHandler{Pipeline: pipeline}
	sensorHandler := &handlers.SensorHandler{
		Store:           store,
		Wifi:            manager,
		CameraAvailable: cameraAvailable,
		Alarm:           alarm,
	}
	statusHandler := &handlers.StatusHandler{Wifi: manager, APSSID: cfg.Network.AccessPoint.SSID}
	dashboard := &handlers.DashboardHandler{CameraAvailable: cameraAvailable}

	if cameraAvailable {
		router.GET("/stream", streamHandler.Stream)
	}
	router.GET("/sensor-data", sensorHandler.Get)
	router.POST("/update-sensor", sensorHandler.Update)
	router.GET("/network-status", statusHandler.NetworkStatus)
	router.POST("/retry-join", statusHandler.RetryJoin)
	router.GET("/", dashboard.Index)
	router.GET("/auto", dashboard.Auto)
	router.GET("/test", dashboard.Test)

	// --- Periodic housekeeping ---
	c := cron.New(
		cron.WithChain(cron.SkipIfStillRunning(&logger.CronLogger{Logger: slog.Default()})),
	)
	c.AddFunc("@every 1m", func() {
		snap := store.Snapshot()
		age, known := store.Age()
		slog.Info("device health",
			"wifi", manager.CurrentState(),
			"camera", cameraAvailable,
			"framesStreamed", pipeline.FramesStreamed(),
			"sensorAge", age,
			"sensorKnown", known,
		)
		// Keep sounding the alarm while water is present.
		if alarm != nil && known && snap.Water == 1 {
			alarm.Trigger()
		}
	})
	c.Start()
	defer c.Stop()

	// --- Telemetry ---
	if cfg.Telemetry.Endpoint != "" {
		ctx := context.Background()
		shutdown, err := telemetry.Setup(ctx, "streamcam", cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Error("telemetry disabled", "error", err)
		} else {
			defer shutdown(ctx)
			go recordMetrics(ctx, manager, store, pipeline)
		}
	}

	slog.Info("server starting", "addr", cfg.Server.Addr, "camera", cameraAvailable)
	if err := router.Run(cfg.Server.Addr); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}

// stateCodes maps connectivity states onto a gauge, unknown states to 0.
var stateCodes = map[wifi.State]int64{
	wifi.StateIdle:         1,
	wifi.StateJoining:      2,
	wifi.StateClientJoined: 3,
	wifi.StateHostOnly:     4,
	wifi.StateReconnecting: 5,
}

// recordMetrics periodically exports device gauges.
func recordMetrics(ctx context.Context, manager *wifi.Manager, store *sensor.Store, pipeline *stream.Pipeline) {
	meter := otel.Meter("streamcam")

	stateGauge, err := meter.Int64Gauge("streamcam.wifi.state")
	if err != nil {
		slog.Error("failed to create wifi state gauge", "error", err)
		return
	}
	connectedGauge, err := meter.Int64Gauge("streamcam.wifi.connected")
	if err != nil {
		slog.Error("failed to create wifi connected gauge", "error", err)
		return
	}
	framesGauge, err := meter.Int64Gauge("streamcam.stream.frames_total")
	if err != nil {
		slog.Error("failed to create frames gauge", "error", err)
		return
	}
	tempGauge, err := meter.Float64Gauge("streamcam.sensor.temperature")
	if err != nil {
		slog.Error("failed to create temperature gauge", "error", err)
		return
	}
	humidityGauge, err := meter.Float64Gauge("streamcam.sensor.humidity")
	if err != nil {
		slog.Error("failed to create humidity gauge", "error", err)
		return
	}
	waterGauge, err := meter.Int64Gauge("streamcam.sensor.water")
	if err != nil {
		slog.Error("failed to create water gauge", "error", err)
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stateGauge.Record(ctx, stateCodes[manager.CurrentState()])
			connected := int64(0)
			if manager.IsClientReachable() {
				connected = 1
			}
			connectedGauge.Record(ctx, connected)
			framesGauge.Record(ctx, pipeline.FramesStreamed())

			snap := store.Snapshot()
			tempGauge.Record(ctx, snap.Temperature)
			humidityGauge.Record(ctx, snap.Humidity)
			waterGauge.Record(ctx, int64(snap.Water))
		}
	}
}
