package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/royalcat/geosdr/geoencode"
	"github.com/royalcat/geosdr/geomodel"
	"github.com/royalcat/geosdr/kv"
)

const MaxBodySize = 32 * 1000 * 1000 // 32MB

var meter = otel.Meter("github.com/royalcat/geosdr/server")

// Run serves the configured encoder over HTTP until ctx is canceled.
func Run(ctx context.Context, address string, enc geoencode.Encoder) error {
	if err := setupTelemetry(ctx); err != nil {
		return fmt.Errorf("failed to initialize otel metrics: %w", err)
	}

	log := slog.Default()

	metricEncodeCallCount, err := meter.Int64Counter("http_encode_call_total")
	if err != nil {
		return err
	}
	metricEncodeBatchCallCount, err := meter.Int64Counter("http_encode_batch_call_total")
	if err != nil {
		return err
	}
	metricRecordsEncoded, err := meter.Int64Counter("records_encoded_total")
	if err != nil {
		return err
	}

	s := &server{
		enc:  enc,
		memo: kv.NewXMap[geomodel.Record, encodeResponse](),

		metricEncodeCallCount:      metricEncodeCallCount,
		metricEncodeBatchCallCount: metricEncodeBatchCallCount,
		metricRecordsEncoded:       metricRecordsEncoded,
	}

	r := router.New()
	r.GET("/encode/{speed}/{lat}/{lon}", s.EncodeHandler)
	r.POST("/encode/batch", s.EncodeBatchHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	httpServer := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            r.Handler,
	}

	go func() {
		log.Info("Server listening", "address", address, "encoder", enc.Identity())
		if err := httpServer.ListenAndServe(address); err != http.ErrServerClosed {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// wait cancel
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return httpServer.ShutdownWithContext(shutdownCtx)
}

type server struct {
	enc geoencode.Encoder

	// memo holds single-record results; encoding is deterministic, so an
	// entry never goes stale for the lifetime of the encoder.
	memo *kv.XMap[geomodel.Record, encodeResponse]

	metricEncodeCallCount      metric.Int64Counter
	metricEncodeBatchCallCount metric.Int64Counter
	metricRecordsEncoded       metric.Int64Counter
}

type encodeResponse struct {
	Width  int   `json:"width"`
	Active []int `json:"active"`
}

func (s *server) EncodeHandler(ctx *fasthttp.RequestCtx) {
	s.metricEncodeCallCount.Add(ctx, 1)

	var rec geomodel.Record
	var err error
	if rec.Speed, err = strconv.ParseFloat(ctx.UserValue("speed").(string), 64); err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}
	if rec.Latitude, err = strconv.ParseFloat(ctx.UserValue("lat").(string), 64); err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}
	if rec.Longitude, err = strconv.ParseFloat(ctx.UserValue("lon").(string), 64); err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		return
	}

	resp, ok := s.memo.Get(rec)
	if !ok {
		v, err := s.enc.Encode(rec)
		if err != nil {
			writeEncodeError(ctx, err)
			return
		}
		resp = encodeResponse{Width: len(v), Active: activeIndices(v)}
		s.memo.Set(rec, resp)
	}
	s.metricRecordsEncoded.Add(ctx, 1)

	out, err := json.Marshal(resp)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(out)
}

func (s *server) EncodeBatchHandler(ctx *fasthttp.RequestCtx) {
	s.metricEncodeBatchCallCount.Add(ctx, 1)

	req := [][3]float64{} // speed, latitude, longitude
	if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
		ctx.Response.SetBodyString("failed to parse request: " + err.Error())
		return
	}

	// rows come back in request order
	rows := make([][]float32, len(req))
	for i, triple := range req {
		v, err := s.enc.Encode(geomodel.Record{
			Speed:     triple[0],
			Latitude:  triple[1],
			Longitude: triple[2],
		})
		if err != nil {
			writeEncodeError(ctx, err)
			return
		}
		rows[i] = v
	}
	s.metricRecordsEncoded.Add(ctx, int64(len(req)))

	out, err := json.Marshal(rows)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(out)
}

func writeEncodeError(ctx *fasthttp.RequestCtx, err error) {
	if errors.Is(err, geoencode.ErrDigitOverflow) {
		ctx.Response.SetStatusCode(http.StatusBadRequest)
	} else {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
	}
	ctx.Response.SetBodyString(err.Error())
}

func activeIndices(v []float32) []int {
	active := make([]int, 0, 32)
	for i, b := range v {
		if b != 0 {
			active = append(active, i)
		}
	}
	return active
}
