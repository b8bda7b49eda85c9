package u

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

const (
	ExtZstd   = ".zst"
	ExtBrotli = ".br"
)

func BrCompressData(d []byte, level int) ([]byte, error) {
	var dst bytes.Buffer
	w := brotli.NewWriterLevel(&dst, level)
	_, err := w.Write(d)
	err2 := w.Close()
	if err = GetErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func BrCompressDataBest(d []byte) ([]byte, error) {
	return BrCompressData(d, brotli.BestCompression)
}

func BrDecompressData(d []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(d))
	return io.ReadAll(r)
}

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// store files are small, concurrency doesn't help.
	// zero frames so that an empty store still decodes
	return zstd.NewWriter(dst,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true))
}

func ZstdCompressData(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	w, err := zstdNewWriter(&dst)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = GetErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func ZstdDecompressData(d []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(d))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// CompressDataForPath compresses d with the format implied by path's
// extension (.zst or .br)
func CompressDataForPath(path string, d []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ExtZstd:
		return ZstdCompressData(d)
	case ExtBrotli:
		return BrCompressDataBest(d)
	}
	return nil, fmt.Errorf("unsupported compression extension '%s' in '%s'", ext, path)
}

// DecompressDataForPath is the reverse of CompressDataForPath
func DecompressDataForPath(path string, d []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ExtZstd:
		return ZstdDecompressData(d)
	case ExtBrotli:
		return BrDecompressData(d)
	}
	return nil, fmt.Errorf("unsupported compression extension '%s' in '%s'", ext, path)
}
