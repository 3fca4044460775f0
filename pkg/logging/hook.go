package logging

import (
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/run-bigpig/telemetry-go/pkg/spanstack"
)

// TracingHook serializes the active span hierarchy into every log event. It
// runs synchronously inside zerolog's event dispatch: when the event's
// context carries a valid span, the hook emits a "spans" array ordered root
// to leaf plus the active trace_id and span_id as lowercase hex.
//
// Each span object holds the span name and the fields captured when the span
// started. Those fields are stored upstream as a pre-serialized JSON
// fragment; the hook re-parses the fragment so values land as native JSON
// entries rather than one opaque string.
type TracingHook struct{}

// Run implements zerolog.Hook.
func (TracingHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}

	if scope := spanstack.Scope(ctx); len(scope) > 0 {
		arr := zerolog.Arr()
		for _, entry := range scope {
			arr.Dict(spanDict(entry))
		}
		e.Array("spans", arr)
	}
	e.Str("trace_id", sc.TraceID().String())
	e.Str("span_id", sc.SpanID().String())
}

// spanDict renders one recorded span. A fragment that fails to parse does
// not abort the event: the raw text is kept under raw_fields with the parse
// error alongside, and serialization continues.
func spanDict(entry spanstack.Entry) *zerolog.Event {
	d := zerolog.Dict()
	name := entry.Name
	nameEmitted := false

	if entry.Fields != "" {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(entry.Fields), &fields); err != nil {
			d.Str("raw_fields", entry.Fields)
			d.Str("fields_error", err.Error())
		} else {
			for key, raw := range fields {
				if key == "name" {
					var s string
					if json.Unmarshal(raw, &s) == nil {
						// A recorded name field overrides the static span name.
						name = s
					} else {
						d.RawJSON("name", raw)
						nameEmitted = true
					}
					continue
				}
				appendValue(d, key, raw)
			}
		}
	}
	if !nameEmitted {
		d.Str("name", name)
	}
	return d
}

// appendValue re-emits one fragment entry. Values that are not JSON strings
// pass through with their native type. Textual values are reinterpreted in
// order: boolean, unsigned integer, signed integer, float, then string.
func appendValue(d *zerolog.Event, key string, raw json.RawMessage) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.RawJSON(key, raw)
		return
	}

	switch s {
	case "true":
		d.Bool(key, true)
	case "false":
		d.Bool(key, false)
	default:
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			d.Uint64(key, u)
		} else if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			d.Int64(key, i)
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			d.Float64(key, f)
		} else {
			d.Str(key, s)
		}
	}
}
