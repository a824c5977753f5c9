// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Calibration roots and artifacts are addressed by URL so that a
// detector installation can keep them on local disk (file scheme or a
// bare path) or in a bucket (gs scheme).

// List expands a glob-style pattern into the matching object URLs.
func List(ctx context.Context, urlString, credentials string) (names []string, err error) {
	scheme, rest := splitScheme(urlString)
	switch scheme {
	case "gs":
		bucket, prefix := splitBucket(rest)
		prefix = strings.TrimSuffix(prefix, "*")
		var objects []string
		objects, err = listGcsObjects(ctx, bucket, prefix, []byte(credentials))
		for _, object := range objects {
			names = append(names, fmt.Sprintf("gs://%v/%v", bucket, object))
		}
	case "file", "":
		names, err = filepath.Glob(rest)
	default:
		err = errors.New("bad url scheme: " + scheme)
	}
	return
}

// GetReader opens a resource for reading.
func GetReader(ctx context.Context, urlString, credentials string) (reader io.ReadCloser, err error) {
	scheme, rest := splitScheme(urlString)
	switch scheme {
	case "gs":
		bucket, object := splitBucket(rest)
		reader, err = createGcsReader(ctx, bucket, object, []byte(credentials))
	case "file", "":
		reader, err = os.Open(filepath.Clean(rest))
	default:
		err = errors.New("bad url scheme: " + scheme)
	}
	return
}

// GetWriter opens a resource for writing, truncating any prior content.
func GetWriter(ctx context.Context, urlString, credentials string) (writer io.WriteCloser, err error) {
	scheme, rest := splitScheme(urlString)
	switch scheme {
	case "gs":
		bucket, object := splitBucket(rest)
		writer, err = createGcsWriter(ctx, bucket, object, []byte(credentials))
	case "file", "":
		writer, err = os.Create(filepath.Clean(rest))
	default:
		err = errors.New("bad url scheme: " + scheme)
	}
	return
}

func splitScheme(urlString string) (scheme, rest string) {
	if !strings.Contains(urlString, "://") {
		return "", urlString
	}
	thisUrl, err := url.Parse(urlString)
	if err != nil {
		return "", urlString
	}
	switch thisUrl.Scheme {
	case "gs":
		return "gs", strings.TrimLeft(urlString[len("gs://"):], "/")
	case "file":
		return "file", filepath.Join(thisUrl.Host, thisUrl.Path)
	}
	return thisUrl.Scheme, urlString
}

func splitBucket(rest string) (bucket, object string) {
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		object = parts[1]
	}
	return
}
