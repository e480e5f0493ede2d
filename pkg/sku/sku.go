// Package sku builds human readable, collision resistant inventory unit codes.
package sku

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// BatchRandomLen is the disambiguator length for received batches.
	BatchRandomLen = 5
	// ImportRandomLen is the disambiguator length for imported units.
	ImportRandomLen = 6

	maxBatchAttempts = 10
)

// DatePrefix formats t as DDMMYYYY.
func DatePrefix(t time.Time) string {
	return t.Format("02012006")
}

// Random returns n uppercase base36 characters from crypto/rand.
func Random(n int) string {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("sku: reading random source: %v", err))
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}

// NormalizeSuffix uppercases a batch suffix and drops whitespace.
func NormalizeSuffix(suffix string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, suffix)
}

// Generate returns <prefix>-<context>-<5 random>.
func Generate(prefix, context string) string {
	return prefix + "-" + context + "-" + Random(BatchRandomLen)
}

// ForBatch returns a receiving SKU: DDMMYYYY-SUFFIX-XXXXX.
func ForBatch(stocked time.Time, suffix string) string {
	return Generate(DatePrefix(stocked), NormalizeSuffix(suffix))
}

// GenerateBatch returns n SKUs for one received batch, unique within the batch.
func GenerateBatch(stocked time.Time, suffix string, n int) ([]string, error) {
	out := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for len(out) < n {
		var code string
		for attempt := 0; ; attempt++ {
			if attempt == maxBatchAttempts {
				return nil, fmt.Errorf("sku: could not generate a unique code after %d attempts", maxBatchAttempts)
			}
			code = ForBatch(stocked, suffix)
			if _, dup := seen[code]; !dup {
				break
			}
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}

// ForImport returns <BR><PR>-<6 random> from the first two letters of brand and product.
func ForImport(brand, product string) string {
	prefix := strings.ToUpper(strings.Join(strings.Fields(firstN(brand, 2)+firstN(product, 2)), ""))
	return prefix + "-" + Random(ImportRandomLen)
}

func firstN(s string, n int) string {
	r := []rune(s)
	if len(r) < n {
		return s
	}
	return string(r[:n])
}
