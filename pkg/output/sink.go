// Copyright 2025 Interlynk.io
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/interlynk-io/lynk/pkg/config"
	"github.com/interlynk-io/lynk/pkg/download"
	"github.com/interlynk-io/lynk/pkg/logger"
)

// Sink receives the bytes of a downloaded SBOM.
type Sink interface {
	Write(ctx context.Context, data []byte) error
	String() string
}

// StdoutSink prints to a writer, normally os.Stdout.
type StdoutSink struct {
	W io.Writer
}

func (s *StdoutSink) Write(_ context.Context, data []byte) error {
	w := s.W
	if w == nil {
		w = os.Stdout
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

func (s *StdoutSink) String() string { return "stdout" }

// FileSink writes to a local path, replacing any existing file.
type FileSink struct {
	Path string
}

func (s *FileSink) Write(_ context.Context, data []byte) error {
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.Path, err)
	}
	return nil
}

func (s *FileSink) String() string { return s.Path }

// OpenSink picks a sink for target: "" is stdout, s3://bucket/key is S3 and
// anything else is a local file.
func OpenSink(ctx context.Context, target string, s3opts config.S3Options) (Sink, error) {
	switch {
	case target == "":
		return &StdoutSink{}, nil
	case strings.HasPrefix(target, "s3://"):
		bucket, key, err := ParseS3URL(target)
		if err != nil {
			return nil, err
		}
		client, err := NewS3Client(ctx, s3opts)
		if err != nil {
			return nil, err
		}
		return &S3Sink{Client: client, Bucket: bucket, Key: key}, nil
	default:
		return &FileSink{Path: target}, nil
	}
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URL %q: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q: expected s3://bucket/key", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("invalid S3 URL %q: missing object key", raw)
	}
	return u.Host, key, nil
}

// Render prepares the artifact bytes for writing. JSON is re-indented unless
// the original document was requested or the content does not parse.
func Render(art *download.Artifact, original bool) []byte {
	if !art.IsJSON() || original {
		return art.Content
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, art.Content, "", "  "); err != nil {
		return art.Content
	}
	return buf.Bytes()
}

// ErrUnsafeFilename is returned when the server suggested filename cannot be
// reduced to a plain name in the working directory.
var ErrUnsafeFilename = errors.New("server returned an unusable filename, use --output")

// LocalFilename reduces a server suggested filename to its last path element.
// Only --output may name directories or S3 targets.
func LocalFilename(name string) (string, error) {
	if strings.Contains(name, "://") {
		return "", fmt.Errorf("%w: %q", ErrUnsafeFilename, name)
	}
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrUnsafeFilename, name)
	}
	return base, nil
}

// WriteArtifact writes art to opts.Output, or to the server suggested filename
// in the working directory when no output is set, or to stdout when both are empty.
func WriteArtifact(ctx context.Context, art *download.Artifact, opts config.DownloadOptions, stdout io.Writer) (Sink, error) {
	target := opts.Output
	if target == "" && art.Filename != "" {
		name, err := LocalFilename(art.Filename)
		if err != nil {
			return nil, err
		}
		target = name
	}

	sink, err := OpenSink(ctx, target, opts.S3)
	if err != nil {
		return nil, err
	}
	if s, ok := sink.(*StdoutSink); ok {
		s.W = stdout
	}
	return sink, writeTo(ctx, sink, art, opts.Original)
}

func writeTo(ctx context.Context, sink Sink, art *download.Artifact, original bool) error {
	data := Render(art, original)
	if err := sink.Write(ctx, data); err != nil {
		return err
	}
	logger.LogDebug(ctx, "SBOM written", "target", sink.String(), "size", humanize.Bytes(uint64(len(data))), "content_type", art.ContentType)
	return nil
}
