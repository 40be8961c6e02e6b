package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

var algorithms = map[string]func() hash.Hash{
	"sha256": sha256.New,
	"sha1":   sha1.New,
	"md5":    md5.New,
	"blake3": func() hash.Hash { return blake3.New() },
	"xxhash": func() hash.Hash { return xxhash.New() },
}

// Supported lists the accepted algorithm names.
func Supported() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hasher computes hex file digests with one algorithm.
type Hasher struct {
	name    string
	newHash func() hash.Hash
}

func New(algorithm string) (Hasher, error) {
	name := strings.ToLower(strings.TrimSpace(algorithm))
	newHash, ok := algorithms[name]
	if !ok {
		return Hasher{}, fmt.Errorf("unsupported checksum algorithm %q (want one of %s)", algorithm, strings.Join(Supported(), ", "))
	}
	return Hasher{name: name, newHash: newHash}, nil
}

func (h Hasher) Algorithm() string {
	return h.name
}

func (h Hasher) Sum(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	digest := h.newHash()
	if _, err := io.Copy(digest, ctxReader{ctx: ctx, r: file}); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
