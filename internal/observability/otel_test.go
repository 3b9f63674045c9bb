package observability

import "testing"

func TestOtelSampleRatio(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"", 0.1},
		{"0.25", 0.25},
		{"-1", 0},
		{"7", 1},
		{"half", 0.1},
	}
	for _, tc := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", tc.raw)
		if got := otelSampleRatio(); got != tc.want {
			t.Fatalf("ratio(%q): want=%v got=%v", tc.raw, tc.want, got)
		}
	}
}

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", " x-api=abc , broken, =nokey, y=2 ")
	h := otelHeaders()
	if len(h) != 2 || h["x-api"] != "abc" || h["y"] != "2" {
		t.Fatalf("headers: got=%v", h)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	if h := otelHeaders(); h != nil {
		t.Fatalf("empty headers: want nil got=%v", h)
	}
}
