package embedding

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"testing"

	"github.com/manna-labs/manna/internal/provider"
)

// fakeClient implements provider.Client, recording Embed calls and producing
// a deterministic vector per input text.
type fakeClient struct {
	embedCalls [][]string
	embedErr   error
	failOnCall int // 1-based call number to fail on; 0 = never
}

func (f *fakeClient) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.embedCalls = append(f.embedCalls, texts)
	if f.embedErr != nil && (f.failOnCall == 0 || len(f.embedCalls) == f.failOnCall) {
		return nil, f.embedErr
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text)), 1}
	}
	return vectors, nil
}

func (f *fakeClient) Complete(context.Context, []provider.Message, provider.GenerateOptions) (string, error) {
	return "", nil
}

func (f *fakeClient) StreamComplete(context.Context, []provider.Message, provider.GenerateOptions) iter.Seq2[string, error] {
	return func(func(string, error) bool) {}
}

func TestEmbedBatch_SplitsIntoBatches(t *testing.T) {
	client := &fakeClient{}
	embedder := New(client, 2, nil)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := embedder.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch() error: %v", err)
	}

	if len(client.embedCalls) != 3 {
		t.Errorf("provider called %d times, want 3", len(client.embedCalls))
	}
	if len(vectors) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(texts))
	}
	// output[i] must correspond to input[i] across batch boundaries.
	for i, text := range texts {
		if vectors[i][0] != float32(len(text)) {
			t.Errorf("vector %d = %v, does not match input %q", i, vectors[i], text)
		}
	}
}

func TestEmbedBatch_ProviderErrorAbortsWholeCall(t *testing.T) {
	wantErr := errors.New("provider down")
	client := &fakeClient{embedErr: wantErr, failOnCall: 2}
	embedder := New(client, 2, nil)

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b", "c", "d"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("EmbedBatch() error = %v, want wrapped %v", err, wantErr)
	}
	if vectors != nil {
		t.Errorf("expected no partial results, got %d vectors", len(vectors))
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	embedder := New(&fakeClient{}, 10, nil)
	vectors, err := embedder.EmbedBatch(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("EmbedBatch(nil) = %v, %v; want nil, nil", vectors, err)
	}
}

func TestEmbedText(t *testing.T) {
	embedder := New(&fakeClient{}, 10, nil)
	vec, err := embedder.EmbedText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedText() error: %v", err)
	}
	if vec[0] != 5 {
		t.Errorf("vec = %v", vec)
	}
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8, 0.1}
	sim, err := CosineSimilarity(v, v)
	if err != nil {
		t.Fatalf("CosineSimilarity() error: %v", err)
	}
	if math.Abs(float64(sim)-1.0) > 1e-6 {
		t.Errorf("sim(v,v) = %v, want 1", sim)
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-4, 5, 0.5}

	ab, err := CosineSimilarity(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := CosineSimilarity(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(ab-ba)) > 1e-7 {
		t.Errorf("sim(a,b)=%v != sim(b,a)=%v", ab, ba)
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(sim)) > 1e-7 {
		t.Errorf("sim = %v, want 0", sim)
	}
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 1}, []float32{-1, -1})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(sim)+1) > 1e-6 {
		t.Errorf("sim = %v, want -1", sim)
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"different lengths", []float32{1, 2}, []float32{1, 2, 3}},
		{"both empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CosineSimilarity(tt.a, tt.b); !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("error = %v, want ErrDimensionMismatch", err)
			}
		})
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim != 0 {
		t.Errorf("sim = %v, want 0 for zero vector", sim)
	}
}

func ExampleCosineSimilarity() {
	sim, _ := CosineSimilarity([]float32{1, 0}, []float32{1, 0})
	fmt.Printf("%.1f\n", sim)
	// Output: 1.0
}
