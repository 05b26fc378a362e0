package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
)

const (
	DefaultDimensions = 512
	bigramWeight      = 0.5
)

var hashKey = []byte("job-agent-embedding-key-32-bytes")

// Hashing is an offline encoder: unigrams and bigrams of the lowercased text
// are hashed into signed buckets and the result is L2-normalized.
type Hashing struct {
	dims int
}

func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Hashing{dims: dims}
}

func (h *Hashing) Dimensions() int {
	return h.dims
}

// Embed returns the zero vector for text without tokens.
func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, h.dims)
	tokens := Tokenize(text)
	for i, token := range tokens {
		h.add(vec, token, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+token, bigramWeight)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dims)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

func (h *Hashing) add(vec []float64, feature string, weight float64) {
	sum := highwayhash.Sum64([]byte(feature), hashKey)
	bucket := int(sum % uint64(h.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

// Tokenize lowercases text and splits it on anything that is not a letter,
// digit, '+' or '#', so "C++" and "C#" survive as tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
