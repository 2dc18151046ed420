// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-model-optimizer.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3MirrorConfig configures the optional checkpoint mirror in an
// S3-compatible object store.
type S3MirrorConfig struct {
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Region       string
	UsePathStyle bool
	Prefix       string
}

// S3Mirror uploads the final checkpoint of a run and can seed a fresh
// host from the last uploaded one.
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Mirror(cfg S3MirrorConfig) (*S3Mirror, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 mirror: empty bucket name")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("S3 mirror: load AWS config: %w", err)
	}

	opts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}

	return &S3Mirror{
		client: s3.NewFromConfig(awsCfg, opts),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (sm *S3Mirror) key(m *Manager) string {
	return path.Join(sm.prefix, m.scope+".ckpt.json")
}

// Upload pushes the manager's checkpoint file to the object store.
func (sm *S3Mirror) Upload(ctx context.Context, m *Manager) error {
	raw, err := os.ReadFile(m.path())
	if err != nil {
		return err
	}

	_, err = sm.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(sm.bucket),
		Key:         aws.String(sm.key(m)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("S3 mirror: put object %q: %w", sm.key(m), err)
	}
	return nil
}

// Download fetches the mirrored checkpoint into the manager's local
// path. A missing object is not an error; the run simply starts fresh.
func (sm *S3Mirror) Download(ctx context.Context, m *Manager) error {
	out, err := sm.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(sm.bucket),
		Key:    aws.String(sm.key(m)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil
		}
		return fmt.Errorf("S3 mirror: get object %q: %w", sm.key(m), err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(m.path(), raw, 0o640)
}
