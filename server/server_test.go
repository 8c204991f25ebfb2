package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/royalcat/geosdr/geoencode"
	"github.com/royalcat/geosdr/geomodel"
	"github.com/royalcat/geosdr/kv"
)

func newTestServer(t testing.TB) *server {
	enc, err := geoencode.NewNumentaEncoder(geoencode.NumentaConfigDefault())
	if err != nil {
		t.Fatal(err)
	}

	// global meter has no SDK installed in tests, counters are no-ops
	callCount, _ := meter.Int64Counter("http_encode_call_total")
	batchCallCount, _ := meter.Int64Counter("http_encode_batch_call_total")
	recordsEncoded, _ := meter.Int64Counter("records_encoded_total")

	return &server{
		enc:  enc,
		memo: kv.NewXMap[geomodel.Record, encodeResponse](),

		metricEncodeCallCount:      callCount,
		metricEncodeBatchCallCount: batchCallCount,
		metricRecordsEncoded:       recordsEncoded,
	}
}

func TestEncodeHandler(t *testing.T) {
	s := newTestServer(t)

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("speed", "30.5")
	ctx.SetUserValue("lat", "55.75")
	ctx.SetUserValue("lon", "37.61")
	s.EncodeHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var resp encodeResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Width != s.enc.Width() {
		t.Fatalf("expected width %d, got %d", s.enc.Width(), resp.Width)
	}
	if len(resp.Active) == 0 || len(resp.Active) > 21 {
		t.Fatalf("expected 1..21 active bits, got %d", len(resp.Active))
	}
	for _, i := range resp.Active {
		if i < 0 || i >= resp.Width {
			t.Fatalf("active index %d out of range", i)
		}
	}
}

func TestEncodeHandlerBadInput(t *testing.T) {
	s := newTestServer(t)

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("speed", "fast")
	ctx.SetUserValue("lat", "55.75")
	ctx.SetUserValue("lon", "37.61")
	s.EncodeHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
	}
}

func TestEncodeBatchHandler(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx(`[[10.0, 55.75, 37.61], [20.0, 59.93, 30.31]]`)
	s.EncodeBatchHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var rows [][]float32
	if err := json.Unmarshal(ctx.Response.Body(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if len(row) != s.enc.Width() {
			t.Fatalf("row %d: expected width %d, got %d", i, s.enc.Width(), len(row))
		}
	}
}

func TestEncodeBatchHandlerBadBody(t *testing.T) {
	s := newTestServer(t)

	ctx := getRequestCtx(`{"not": "an array"}`)
	s.EncodeBatchHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
	}
}

func TestEncodeHandlerDigitOverflow(t *testing.T) {
	enc, err := geoencode.NewAltGeoEncoder(geoencode.AltGeoConfigDefault())
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t)
	s.enc = enc

	ctx := &fasthttp.RequestCtx{}
	ctx.SetUserValue("speed", "1000")
	ctx.SetUserValue("lat", "55.75")
	ctx.SetUserValue("lon", "37.61")
	s.EncodeHandler(ctx)

	if ctx.Response.StatusCode() != http.StatusBadRequest {
		t.Fatalf("expected 400 on overflow, got %d", ctx.Response.StatusCode())
	}
}

func BenchmarkHandlers(b *testing.B) {
	s := newTestServer(b)

	b.ResetTimer()

	b.Run("EncodeBatchHandler-10", func(b *testing.B) {
		records := genereateRecords(10)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			ctx := getRequestCtx(records)
			s.EncodeBatchHandler(ctx)
		}
	})

	b.Run("EncodeBatchHandler-1000", func(b *testing.B) {
		records := genereateRecords(1000)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			ctx := getRequestCtx(records)
			s.EncodeBatchHandler(ctx)
		}
	})

	b.Run("EncodeBatchHandler-10_000", func(b *testing.B) {
		records := genereateRecords(10_000)
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			ctx := getRequestCtx(records)
			s.EncodeBatchHandler(ctx)
		}
	})
}

func genereateRecords(n int) string {
	records := "["
	for i := range n {
		records += "[30.0, 55.75, 37.61]"
		if i != n-1 {
			records += ","
		}
	}
	records += "]"
	return records
}

func getRequestCtx(body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	return ctx
}
