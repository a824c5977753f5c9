// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package container

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

func newGcsClient(ctx context.Context, credentials []byte) (*storage.Client, error) {
	if len(credentials) == 0 {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsJSON(credentials))
}

func listGcsObjects(ctx context.Context, bucket, prefix string, credentials []byte) ([]string, error) {
	client, err := newGcsClient(ctx, credentials)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var objects []string

	bucketHandle := client.Bucket(bucket)
	it := bucketHandle.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		objAttrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, objAttrs.Name)
	}

	return objects, nil
}

type gcsReadCloser struct {
	io.ReadCloser
	client *storage.Client
}

func (r *gcsReadCloser) Close() error {
	err := r.ReadCloser.Close()
	r.client.Close()
	return err
}

func createGcsReader(ctx context.Context, bucket, object string, credentials []byte) (io.ReadCloser, error) {
	client, err := newGcsClient(ctx, credentials)
	if err != nil {
		return nil, err
	}

	objectReader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &gcsReadCloser{ReadCloser: objectReader, client: client}, nil
}

type gcsWriteCloser struct {
	io.WriteCloser
	client *storage.Client
}

func (w *gcsWriteCloser) Close() error {
	err := w.WriteCloser.Close()
	w.client.Close()
	return err
}

func createGcsWriter(ctx context.Context, bucket, object string, credentials []byte) (io.WriteCloser, error) {
	client, err := newGcsClient(ctx, credentials)
	if err != nil {
		return nil, err
	}

	objectWriter := client.Bucket(bucket).Object(object).NewWriter(ctx)
	return &gcsWriteCloser{WriteCloser: objectWriter, client: client}, nil
}
