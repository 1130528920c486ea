package embedding

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingProvider fails a fixed number of times before succeeding.
type failingProvider struct {
	failures  int
	calls     int
	dims      int
	model     string
	vectorLen int
}

func (p *failingProvider) Model() string   { return p.model }
func (p *failingProvider) Dimensions() int { return p.dims }

func (p *failingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, errors.New("provider unavailable")
	}
	vlen := p.vectorLen
	if vlen == 0 {
		vlen = p.dims
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, vlen)
	}
	return out, nil
}

func (p *failingProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func noDelay(int) time.Duration { return 0 }

func TestClient_RetriesThenSucceeds(t *testing.T) {
	p := &failingProvider{failures: 2, dims: 8, model: "mock"}
	c := NewClient(p, WithDelay(noDelay))
	vectors, err := c.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vectors) != 2 || len(vectors[0]) != 8 {
		t.Errorf("unexpected vectors: %d x %d", len(vectors), len(vectors[0]))
	}
	if p.calls != 3 {
		t.Errorf("expected 3 provider calls, got %d", p.calls)
	}
}

func TestClient_ProviderFailureAfterAllAttempts(t *testing.T) {
	p := &failingProvider{failures: 10, dims: 8, model: "mock"}
	c := NewClient(p, WithDelay(noDelay))
	_, err := c.Embed(context.Background(), []string{"a"})
	var embErr *Error
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if embErr.Kind != KindProviderFailure {
		t.Errorf("Kind = %s, want %s", embErr.Kind, KindProviderFailure)
	}
	if p.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", p.calls)
	}
}

func TestClient_Timeout(t *testing.T) {
	p := &failingProvider{failures: 100, dims: 8, model: "mock"}
	c := NewClient(p,
		WithBatchTimeout(20*time.Millisecond),
		WithDelay(func(int) time.Duration { return 50 * time.Millisecond }),
	)
	_, err := c.Embed(context.Background(), []string{"a"})
	var embErr *Error
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if embErr.Kind != KindTimeout {
		t.Errorf("Kind = %s, want %s", embErr.Kind, KindTimeout)
	}
}

// shortProvider returns one vector fewer than asked.
type shortProvider struct{ calls int }

func (p *shortProvider) Model() string   { return "mock" }
func (p *shortProvider) Dimensions() int { return 8 }

func (p *shortProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.calls++
	out := make([][]float32, 0, len(texts))
	for range texts[1:] {
		out = append(out, make([]float32, 8))
	}
	return out, nil
}

func (p *shortProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, 8), nil
}

func TestClient_VectorCountValidation(t *testing.T) {
	p := &shortProvider{}
	c := NewClient(p, WithDelay(noDelay))
	_, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	var embErr *Error
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if embErr.Kind != KindProviderFailure {
		t.Errorf("Kind = %s, want %s", embErr.Kind, KindProviderFailure)
	}
	if p.calls != 3 {
		t.Errorf("a short batch should be retried, got %d calls", p.calls)
	}
}

func TestClient_DimensionValidation(t *testing.T) {
	p := &failingProvider{dims: 8, vectorLen: 4, model: "mock"}
	c := NewClient(p, WithDelay(noDelay))
	_, err := c.Embed(context.Background(), []string{"a"})
	var embErr *Error
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if embErr.Kind != KindDimensionMismatch {
		t.Errorf("Kind = %s, want %s", embErr.Kind, KindDimensionMismatch)
	}
}

func TestClient_KnownModelDimensions(t *testing.T) {
	p := &failingProvider{dims: 999, model: "text-embedding-3-large"}
	c := NewClient(p)
	if d := c.Dimensions(); d != 3072 {
		t.Errorf("Dimensions = %d, want 3072", d)
	}
	p2 := &failingProvider{dims: 999, model: "text-embedding-ada-002"}
	if d := NewClient(p2).Dimensions(); d != 1536 {
		t.Errorf("Dimensions = %d, want 1536", d)
	}
	p3 := &failingProvider{dims: 384, model: "something-custom"}
	if d := NewClient(p3).Dimensions(); d != 384 {
		t.Errorf("Dimensions = %d, want provider default 384", d)
	}
}

func TestDelay_Exponential(t *testing.T) {
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := Delay(i); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i, got, w)
		}
	}
	if Delay(-1) != time.Second {
		t.Error("negative attempt should clamp to first delay")
	}
}

func TestCache_GetSet(t *testing.T) {
	c := NewCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
}
